package chains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

const configuredChainsNamespace = "configured-chains"

// ConfiguredChains persists the chains each user added or modified.
type ConfiguredChains struct {
	mu      sync.Mutex
	backend interfaces.StateBackend
	log     *slog.Logger
}

// NewConfiguredChains creates a store on top of backend.
func NewConfiguredChains(backend interfaces.StateBackend, log *slog.Logger) *ConfiguredChains {
	return &ConfiguredChains{
		backend: backend,
		log:     log,
	}
}

// List returns the user's configured chains in insertion order.
func (s *ConfiguredChains) List(ctx context.Context, user string) ([]interfaces.Chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, user)
}

// Modify adds chain or replaces the stored chain with the same id.
func (s *ConfiguredChains) Modify(ctx context.Context, user string, chain interfaces.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load(ctx, user)
	if err != nil {
		return err
	}

	replaced := false
	for i := range stored {
		if stored[i].ChainID == chain.ChainID {
			stored[i] = chain
			replaced = true
			break
		}
	}
	if !replaced {
		stored = append(stored, chain)
	}

	if err := s.save(ctx, user, stored); err != nil {
		return err
	}

	s.log.Info("Configured chain stored",
		slog.String("user", user),
		slog.String("chainId", chain.ChainID.String()),
		slog.Bool("replaced", replaced))
	return nil
}

// Remove deletes the chain with the given id. It returns ErrUnknownChain when
// the user has no such chain.
func (s *ConfiguredChains) Remove(ctx context.Context, user string, id interfaces.ChainID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load(ctx, user)
	if err != nil {
		return err
	}

	kept := stored[:0]
	for _, chain := range stored {
		if chain.ChainID != id {
			kept = append(kept, chain)
		}
	}
	if len(kept) == len(stored) {
		return fmt.Errorf("%w: %d", interfaces.ErrUnknownChain, id)
	}

	return s.save(ctx, user, kept)
}

func (s *ConfiguredChains) load(ctx context.Context, user string) ([]interfaces.Chain, error) {
	data, err := s.backend.Fetch(ctx, interfaces.NewStateKey(configuredChainsNamespace, user))
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not load configured chains: %w", err)
	}

	var chains []interfaces.Chain
	if err := json.Unmarshal(data, &chains); err != nil {
		return nil, fmt.Errorf("could not parse configured chains: %w", err)
	}
	return chains, nil
}

func (s *ConfiguredChains) save(ctx context.Context, user string, chains []interfaces.Chain) error {
	data, err := json.Marshal(chains)
	if err != nil {
		return fmt.Errorf("could not encode configured chains: %w", err)
	}
	if err := s.backend.Store(ctx, interfaces.NewStateKey(configuredChainsNamespace, user), data); err != nil {
		return fmt.Errorf("could not store configured chains: %w", err)
	}
	return nil
}
