// Package wallet models the chain-switch surface of a user's connected wallet.
//
// A Session tracks the active chain of one user. Chain changes arrive either
// through SwitchChain (requested by the dashboard) or ReportActiveChain (the
// wallet extension switched on its own). Listeners registered with Subscribe
// are invoked exactly once per transition to a different chain id.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

var (
	// ErrNotConnected is returned when a switch is requested without a wallet.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrChainIDMismatch is returned when an RPC endpoint serves another chain.
	ErrChainIDMismatch = errors.New("rpc chain id mismatch")
)

// SupportedChainsFunc lists the chains a session may switch to.
type SupportedChainsFunc func(ctx context.Context) ([]interfaces.Chain, error)

// RPCChainIDFunc returns the chain id served by an RPC endpoint.
type RPCChainIDFunc func(ctx context.Context, url string) (interfaces.ChainID, error)

// EthChainID queries eth_chainId on url.
func EthChainID(ctx context.Context, url string) (interfaces.ChainID, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("could not dial rpc: %w", err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not query chain id: %w", err)
	}
	if !id.IsInt64() {
		return 0, fmt.Errorf("%w: chain id %s out of range", interfaces.ErrInvalidChainID, id)
	}
	return interfaces.ChainID(id.Int64()), nil
}

// Session is the wallet state of one user. It implements interfaces.Wallet.
type Session struct {
	mu        sync.Mutex
	user      string
	connected bool
	active    *interfaces.Chain
	listeners map[int]interfaces.ChainListener
	nextID    int

	supported SupportedChainsFunc
	rpcChain  RPCChainIDFunc
	log       *slog.Logger
}

// NewSession creates a disconnected session. When rpcChain is nil the RPC
// endpoint of the target chain is not verified on switch.
func NewSession(user string, supported SupportedChainsFunc, rpcChain RPCChainIDFunc, log *slog.Logger) *Session {
	return &Session{
		user:      user,
		listeners: make(map[int]interfaces.ChainListener),
		supported: supported,
		rpcChain:  rpcChain,
		log:       log.With("user", user),
	}
}

// Connected reports whether a wallet is attached.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Disconnect detaches the wallet. The active chain is forgotten without
// notifying listeners.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.active = nil
}

// ActiveChain returns the active chain.
func (s *Session) ActiveChain() (interfaces.Chain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return interfaces.Chain{}, false
	}
	return *s.active, true
}

// SupportedChains returns the chains this session may switch to.
func (s *Session) SupportedChains(ctx context.Context) ([]interfaces.Chain, error) {
	return s.supported(ctx)
}

// SwitchChain makes id the active chain after checking that it is supported
// and, when configured, that its first RPC endpoint serves that chain id.
func (s *Session) SwitchChain(ctx context.Context, id interfaces.ChainID) error {
	if !s.Connected() {
		return ErrNotConnected
	}

	chain, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	if s.rpcChain != nil && chain.FirstRPC() != "" {
		served, err := s.rpcChain(ctx, chain.FirstRPC())
		if err != nil {
			return fmt.Errorf("could not verify rpc of chain %d: %w", id, err)
		}
		if served != id {
			return fmt.Errorf("%w: expected %d, rpc serves %d", ErrChainIDMismatch, id, served)
		}
	}

	s.setActive(chain, false)
	return nil
}

// ReportActiveChain records a chain change made in the wallet itself and
// marks the wallet as connected.
func (s *Session) ReportActiveChain(ctx context.Context, id interfaces.ChainID) error {
	chain, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.setActive(chain, true)
	return nil
}

// Subscribe registers listener for active chain transitions.
func (s *Session) Subscribe(listener interfaces.ChainListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) lookup(ctx context.Context, id interfaces.ChainID) (interfaces.Chain, error) {
	supported, err := s.supported(ctx)
	if err != nil {
		return interfaces.Chain{}, fmt.Errorf("could not list supported chains: %w", err)
	}
	for _, chain := range supported {
		if chain.ChainID == id {
			return chain, nil
		}
	}
	return interfaces.Chain{}, fmt.Errorf("%w: %d", interfaces.ErrUnknownChain, id)
}

// setActive stores chain and notifies listeners outside the lock when the
// chain id changed.
func (s *Session) setActive(chain interfaces.Chain, connect bool) {
	s.mu.Lock()
	if connect {
		s.connected = true
	}
	changed := s.active == nil || s.active.ChainID != chain.ChainID
	s.active = &chain

	var listeners []interfaces.ChainListener
	if changed {
		listeners = make([]interfaces.ChainListener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	s.log.Debug("Active chain changed", slog.String("chainId", chain.ChainID.String()))
	for _, l := range listeners {
		l(chain)
	}
}
