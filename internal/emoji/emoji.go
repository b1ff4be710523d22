// Package emoji holds the custom emoji uploaded to the bot's home server.
package emoji

import (
	"strconv"
	"strings"
)

const (
	Star        = "<:WarStar:1054016342637379614>"
	EmptyStar   = "<:EmptyStar:1054016345149788251>"
	Sword       = "<:Attack:1054016310232723526>"
	Shield      = "<:Defense:1054016314519306300>"
	Destruction = "<:Destruction:1054016316461256764>"
	Clan        = "<:Clan:1054016312161812530>"
	Members     = "<:Members:1054016336912453673>"
	Trophy      = "<:Trophy:1054016351701307422>"
	Exp         = "<:Exp:1054016320512151622>"
	Donated     = "<:Donated:1054016318239129661>"
	Received    = "<:Received:1054016340037607464>"
	Win         = "<:Win:1054016355648290876>"
	Loss        = "<:Loss:1054016333313826867>"
	Tie         = "<:Tie:1054016349096529962>"
	Yes         = "<:Yes:1054016357598363718>"
	No          = "<:No:1054016338158149672>"
	Rushed      = "<:Rushed:1054016344369598545>"
	Joined      = "<:Join:1054016329475452988>"
	Left        = "<:Leave:1054016331325198346>"
	Unknown     = "<:Unknown:1054016353177243700>"
)

var townHalls = map[int]string{
	1:  "<:TH1:1047167141395927102>",
	2:  "<:TH2:1047167143216230471>",
	3:  "<:TH3:1047167145129832489>",
	4:  "<:TH4:1047167147075604560>",
	5:  "<:TH5:1047167148853489684>",
	6:  "<:TH6:1047167150396952606>",
	7:  "<:TH7:1047167152280035378>",
	8:  "<:TH8:1047167154264117298>",
	9:  "<:TH9:1047167155954454568>",
	10: "<:TH10:1047167157905125426>",
	11: "<:TH11:1047167159624785962>",
	12: "<:TH12:1047167161281540147>",
	13: "<:TH13:1047167163064057867>",
	14: "<:TH14:1047167165018660884>",
	15: "<:TH15:1047167166977482812>",
	16: "<:TH16:1180821429883646012>",
	17: "<:TH17:1310231178012295209>",
}

var heroes = map[string]string{
	"Barbarian King": "<:BarbarianKing:1054015627705643038>",
	"Archer Queen":   "<:ArcherQueen:1054015621036704787>",
	"Minion Prince":  "<:MinionPrince:1298013245125677117>",
	"Grand Warden":   "<:GrandWarden:1054015634911461416>",
	"Royal Champion": "<:RoyalChampion:1054015641098088468>",
}

var pets = map[string]string{
	"L.A.S.S.I":     "<:LASSI:1054015755548983376>",
	"Electro Owl":   "<:ElectroOwl:1054015748997382225>",
	"Mighty Yak":    "<:MightyYak:1054015752801620048>",
	"Unicorn":       "<:Unicorn:1054015759583817779>",
	"Frosty":        "<:Frosty:1054015750670925874>",
	"Diggy":         "<:Diggy:1054015746690437120>",
	"Poison Lizard": "<:PoisonLizard:1054015757788565534>",
	"Phoenix":       "<:Phoenix:1054015755876028486>",
	"Spirit Fox":    "<:SpiritFox:1180820940026056834>",
	"Angry Jelly":   "<:AngryJelly:1264598931357421649>",
	"Sneezy":        "<:Sneezy:1310231398905577502>",
}

var spells = map[string]string{
	"Lightning Spell":    "<:Lightning:1054015831096655933>",
	"Healing Spell":      "<:Healing:1054015827313209364>",
	"Rage Spell":         "<:Rage:1054015839300419584>",
	"Jump Spell":         "<:Jump:1054015829229912094>",
	"Freeze Spell":       "<:Freeze:1054015825216012308>",
	"Clone Spell":        "<:Clone:1054015818689638420>",
	"Invisibility Spell": "<:Invisibility:1054015828281995275>",
	"Recall Spell":       "<:Recall:1054015840986562610>",
	"Revive Spell":       "<:Revive:1264599002962583562>",
	"Poison Spell":       "<:Poison:1054015837236842526>",
	"Earthquake Spell":   "<:Earthquake:1054015823031201832>",
	"Haste Spell":        "<:Haste:1054015826012553266>",
	"Skeleton Spell":     "<:Skeleton:1054015843259535360>",
	"Bat Spell":          "<:Bat:1054015816797667408>",
	"Overgrowth Spell":   "<:Overgrowth:1180821076416946236>",
}

var leagues = map[string]string{
	"Unranked":        "<:Unranked:1054016049774022707>",
	"Bronze League":   "<:Bronze:1054016035018461194>",
	"Silver League":   "<:Silver:1054016047173840936>",
	"Gold League":     "<:Gold:1054016041129799740>",
	"Crystal League":  "<:Crystal:1054016037459767357>",
	"Master League":   "<:Master:1054016043734433882>",
	"Champion League": "<:Champion:1054016036063690762>",
	"Titan League":    "<:Titan:1054016048440582194>",
	"Legend League":   "<:Legend:1054016042668519465>",
}

var roles = map[string]string{
	"leader":   "<:Leader:1054016331539107890>",
	"coLeader": "<:CoLeader:1054016313553948702>",
	"admin":    "<:Elder:1054016319405183046>",
	"member":   "<:Member:1054016335435800616>",
}

// TownHall returns the emoji for a town hall level.
func TownHall(level int) string {
	if value, ok := townHalls[level]; ok {
		return value
	}
	return "TH" + strconv.Itoa(level)
}

func Hero(name string) string  { return lookup(heroes, name) }
func Pet(name string) string   { return lookup(pets, name) }
func Spell(name string) string { return lookup(spells, name) }
func Role(role string) string  { return lookup(roles, role) }

// League matches on the league family so "Crystal League II" resolves to crystal.
func League(name string) string {
	if value, ok := leagues[name]; ok {
		return value
	}
	for key, value := range leagues {
		family := strings.TrimSuffix(key, " League")
		if strings.HasPrefix(name, family) {
			return value
		}
	}
	return leagues["Unranked"]
}

// Stars renders earned stars followed by empty ones up to three.
func Stars(count int) string {
	if count < 0 {
		count = 0
	}
	if count > 3 {
		count = 3
	}
	return strings.Repeat(Star, count) + strings.Repeat(EmptyStar, 3-count)
}

// WarResult maps an API war result to its emoji.
func WarResult(result string) string {
	switch result {
	case "win":
		return Win
	case "lose":
		return Loss
	case "tie":
		return Tie
	default:
		return Unknown
	}
}

func lookup(table map[string]string, key string) string {
	if value, ok := table[key]; ok {
		return value
	}
	return Unknown
}
