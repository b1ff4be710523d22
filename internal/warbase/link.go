package warbase

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

const (
	LayoutHost   = "link.clashofclans.com"
	layoutAction = "OpenLayout"
)

var (
	ErrInvalidLink = errors.New("warbase: not a base layout link")
	layoutIDRegex  = regexp.MustCompile(`^TH(\d{1,2}):[A-Z]{2}:[A-Za-z0-9_\-]+$`)
)

// Layout is a parsed base layout link.
type Layout struct {
	Link     string
	LayoutID string
	TownHall int
}

// ID returns a short stable identifier for the layout.
func (l Layout) ID() string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(l.LayoutID))
	return fmt.Sprintf("%08x", h.Sum32())
}

// ParseLink validates a shared layout link and returns it in canonical form.
func ParseLink(raw string) (Layout, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "<>")
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	host := strings.ToLower(parsed.Hostname())
	if asciiHost, err := idna.Lookup.ToASCII(host); err == nil {
		host = asciiHost
	}
	if host != LayoutHost {
		return Layout{}, fmt.Errorf("%w: unexpected host %q", ErrInvalidLink, host)
	}

	query := parsed.Query()
	if query.Get("action") != layoutAction {
		return Layout{}, fmt.Errorf("%w: missing OpenLayout action", ErrInvalidLink)
	}
	layoutID := query.Get("id")
	match := layoutIDRegex.FindStringSubmatch(layoutID)
	if match == nil {
		return Layout{}, fmt.Errorf("%w: malformed layout id", ErrInvalidLink)
	}
	townHall, err := strconv.Atoi(match[1])
	if err != nil || townHall < 1 {
		return Layout{}, fmt.Errorf("%w: bad town hall", ErrInvalidLink)
	}

	lang := strings.Trim(parsed.Path, "/")
	if lang == "" {
		lang = "en"
	}
	canonical := url.URL{
		Scheme:   "https",
		Host:     LayoutHost,
		Path:     "/" + lang,
		RawQuery: url.Values{"action": {layoutAction}, "id": {layoutID}}.Encode(),
	}

	return Layout{Link: canonical.String(), LayoutID: layoutID, TownHall: townHall}, nil
}
