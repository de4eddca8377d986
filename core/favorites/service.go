package favorites

import (
	"context"
	"errors"
	"fmt"

	"ajnadfm/logger"
	"ajnadfm/model"

	"github.com/google/uuid"
)

// ErrAuthRequired is returned when a backend favorite operation is
// attempted without a user session. Callers surface it so the UI can
// prompt for sign-in and revert optimistic changes.
var ErrAuthRequired = errors.New("AUTH_REQUIRED")

// Repo is the direct-table fallback surface.
type Repo interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	Find(ctx context.Context, userID int64, nasheedID string) (*model.Favorite, error)
	Create(ctx context.Context, fav *model.Favorite) error
	Delete(ctx context.Context, id string) error
}

// Fn is a peer favorites function tried before the direct table
// operations. Optional; nil skips straight to the table.
type Fn interface {
	List(ctx context.Context, token string) ([]model.Favorite, error)
	Toggle(ctx context.Context, token, nasheedID string) (favored bool, err error)
}

// Service is the backend favorites tier: remote function first, direct
// table operations as fallback. A successful backend toggle is
// authoritative; backend failures propagate so the caller can revert.
type Service struct {
	repo Repo
	fn   Fn
}

// NewService builds the service. fn may be nil.
func NewService(repo Repo, fn Fn) *Service {
	return &Service{repo: repo, fn: fn}
}

// ListMap returns the user's favorites as nasheed id to favorite-record
// id. Without a session the map is empty.
func (s *Service) ListMap(ctx context.Context, userID int64, token string) (map[string]string, error) {
	if userID == 0 {
		return map[string]string{}, nil
	}

	if s.fn != nil && token != "" {
		rows, err := s.fn.List(ctx, token)
		if err == nil {
			m := make(map[string]string, len(rows))
			for _, row := range rows {
				m[row.NasheedID] = row.ID
			}
			return m, nil
		}
		logger.Debug("favorites function list failed, falling back to table", logger.ErrorField(err))
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	m := make(map[string]string, len(rows))
	for _, row := range rows {
		m[row.NasheedID] = row.ID
	}
	return m, nil
}

// Toggle flips the favorite mark for the track and returns the final
// membership. Without a session it fails with ErrAuthRequired.
func (s *Service) Toggle(ctx context.Context, userID int64, token, nasheedID string) (bool, error) {
	if userID == 0 {
		return false, ErrAuthRequired
	}

	if s.fn != nil && token != "" {
		favored, err := s.fn.Toggle(ctx, token, nasheedID)
		if err == nil {
			return favored, nil
		}
		logger.Debug("favorites function toggle failed, falling back to table", logger.ErrorField(err))
	}

	existing, err := s.repo.Find(ctx, userID, nasheedID)
	if err != nil {
		return false, fmt.Errorf("failed to look up favorite: %w", err)
	}

	if existing != nil {
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return true, fmt.Errorf("failed to remove favorite: %w", err)
		}
		return false, nil
	}

	fav := &model.Favorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		NasheedID: nasheedID,
	}
	if err := s.repo.Create(ctx, fav); err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}
