package chains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

const recentChainsNamespace = "recent-chains"

// DefaultRecentLimit is the number of recently used chains kept per user.
const DefaultRecentLimit = 5

// RecentlyUsed persists the chains a user switched to, most recent first.
type RecentlyUsed struct {
	mu      sync.Mutex
	backend interfaces.StateBackend
	limit   int
}

// NewRecentlyUsed creates a store keeping at most limit ids per user.
// A non-positive limit selects DefaultRecentLimit.
func NewRecentlyUsed(backend interfaces.StateBackend, limit int) *RecentlyUsed {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentlyUsed{
		backend: backend,
		limit:   limit,
	}
}

// IDs returns the user's recently used chain ids, most recent first.
func (s *RecentlyUsed) IDs(ctx context.Context, user string) ([]interfaces.ChainID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, user)
}

// Add moves id to the front of the user's list, removing any older occurrence.
func (s *RecentlyUsed) Add(ctx context.Context, user string, id interfaces.ChainID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx, user)
	if err != nil {
		return err
	}

	updated := make([]interfaces.ChainID, 0, len(ids)+1)
	updated = append(updated, id)
	for _, existing := range ids {
		if existing != id {
			updated = append(updated, existing)
		}
	}
	if len(updated) > s.limit {
		updated = updated[:s.limit]
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("could not encode recent chains: %w", err)
	}
	if err := s.backend.Store(ctx, interfaces.NewStateKey(recentChainsNamespace, user), data); err != nil {
		return fmt.Errorf("could not store recent chains: %w", err)
	}
	return nil
}

// Resolve maps the user's recent ids to chains. Ids that are no longer
// supported are skipped.
func (s *RecentlyUsed) Resolve(ctx context.Context, user string, supported []interfaces.Chain) ([]interfaces.Chain, error) {
	ids, err := s.IDs(ctx, user)
	if err != nil {
		return nil, err
	}

	byID := interfaces.ChainsByID(supported)
	resolved := make([]interfaces.Chain, 0, len(ids))
	for _, id := range ids {
		if chain, ok := byID[id]; ok {
			resolved = append(resolved, chain)
		}
	}
	return resolved, nil
}

func (s *RecentlyUsed) load(ctx context.Context, user string) ([]interfaces.ChainID, error) {
	data, err := s.backend.Fetch(ctx, interfaces.NewStateKey(recentChainsNamespace, user))
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not load recent chains: %w", err)
	}

	var ids []interfaces.ChainID
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("could not parse recent chains: %w", err)
	}
	return slices.Compact(ids), nil
}
