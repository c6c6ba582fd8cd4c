package selector

import (
	"context"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/wallet"
)

// Registry holds one selector and wallet session per user.
type Registry struct {
	mu        sync.Mutex
	selectors map[string]*Selector
	sessions  map[string]*wallet.Session

	cfg      Config
	deps     Dependencies
	rpcChain wallet.RPCChainIDFunc
}

// NewRegistry creates selectors on demand from cfg, with Config.User set to
// the requesting user. rpcChain is passed to every wallet session.
func NewRegistry(cfg Config, deps Dependencies, rpcChain wallet.RPCChainIDFunc) *Registry {
	return &Registry{
		selectors: make(map[string]*Selector),
		sessions:  make(map[string]*wallet.Session),
		cfg:       cfg,
		deps:      deps,
		rpcChain:  rpcChain,
	}
}

// Get returns the selector of user, creating it on first use.
func (r *Registry) Get(user string) *Selector {
	s, _ := r.get(user)
	return s
}

// Session returns the wallet session of user.
func (r *Registry) Session(user string) *wallet.Session {
	_, session := r.get(user)
	return session
}

func (r *Registry) get(user string) (*Selector, *wallet.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, found := r.selectors[user]; found {
		return s, r.sessions[user]
	}

	supported := func(ctx context.Context) ([]interfaces.Chain, error) {
		custom, err := r.deps.Configured.List(ctx, user)
		if err != nil {
			return nil, err
		}
		return r.deps.Catalog.Merge(custom), nil
	}

	cfg := r.cfg
	cfg.User = user
	session := wallet.NewSession(user, supported, r.rpcChain, r.deps.Log)
	s := New(cfg, r.deps, session)
	r.selectors[user] = s
	r.sessions[user] = session
	return s, session
}

// Close releases every selector.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for user, s := range r.selectors {
		s.Release()
		delete(r.selectors, user)
		delete(r.sessions, user)
	}
}
