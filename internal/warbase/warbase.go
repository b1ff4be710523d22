// Package warbase manages shared war-base layouts and who is using them.
package warbase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"cwl-bot/internal/keylock"
	"cwl-bot/internal/storage"
)

var ErrNotOwner = errors.New("warbase: only the uploader or an admin can do that")

// Base wraps the stored document.
type Base struct {
	storage.WarBase
}

func (b Base) ClaimedBy(userID string) bool {
	return slices.Contains(b.Claims, userID)
}

func (b Base) ClaimCount() int {
	return len(b.Claims)
}

type Service struct {
	repo   storage.WarBaseRepository
	logger *zap.Logger
	locks  *keylock.Mutex
	now    func() time.Time
}

func NewService(repo storage.WarBaseRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		locks:  keylock.New(),
		now:    time.Now,
	}
}

// Add stores a layout link. Re-adding a known layout updates its notes only for the uploader;
// anyone else gets the stored base back unchanged.
func (s *Service) Add(ctx context.Context, rawLink, notes, addedBy string) (Base, error) {
	layout, err := ParseLink(rawLink)
	if err != nil {
		return Base{}, err
	}

	id := layout.ID()
	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.get(ctx, id)
	switch {
	case err == nil && existing.AddedBy != addedBy:
		return existing, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return Base{}, err
	}

	doc := storage.WarBase{
		ID:       id,
		TownHall: layout.TownHall,
		Link:     layout.Link,
		Notes:    notes,
		AddedBy:  addedBy,
		AddedAt:  s.now(),
	}
	if err := s.repo.InsertWarBase(ctx, doc); err != nil {
		return Base{}, fmt.Errorf("insert war base: %w", err)
	}
	s.logger.Info("war base added", zap.String("id", id), zap.Int("town_hall", layout.TownHall), zap.String("user_id", addedBy))
	return s.get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Base, error) {
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context, townHall int) ([]Base, error) {
	docs, err := s.repo.ListWarBases(ctx, townHall)
	if err != nil {
		return nil, err
	}
	bases := make([]Base, 0, len(docs))
	for _, doc := range docs {
		bases = append(bases, Base{WarBase: doc})
	}
	return bases, nil
}

// Claim adds the user to the base's claims and returns the updated document.
func (s *Service) Claim(ctx context.Context, id, userID string) (Base, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	base, err := s.get(ctx, id)
	if err != nil {
		return Base{}, err
	}
	if base.ClaimedBy(userID) {
		return base, nil
	}
	if err := s.repo.AddWarBaseClaim(ctx, id, userID); err != nil {
		return Base{}, fmt.Errorf("claim war base: %w", err)
	}
	return s.get(ctx, id)
}

// Unclaim removes the user from the base's claims; unclaiming twice is a no-op.
func (s *Service) Unclaim(ctx context.Context, id, userID string) (Base, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	base, err := s.get(ctx, id)
	if err != nil {
		return Base{}, err
	}
	if !base.ClaimedBy(userID) {
		return base, nil
	}
	if err := s.repo.RemoveWarBaseClaim(ctx, id, userID); err != nil {
		return Base{}, fmt.Errorf("unclaim war base: %w", err)
	}
	return s.get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id, userID string, admin bool) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	base, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !admin && base.AddedBy != userID {
		return ErrNotOwner
	}
	if err := s.repo.DeleteWarBase(ctx, id); err != nil {
		return err
	}
	s.logger.Info("war base deleted", zap.String("id", id), zap.String("user_id", userID))
	return nil
}

func (s *Service) get(ctx context.Context, id string) (Base, error) {
	doc, err := s.repo.GetWarBase(ctx, id)
	if err != nil {
		return Base{}, err
	}
	return Base{WarBase: doc}, nil
}
