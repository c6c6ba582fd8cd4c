package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/chains"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"go.uber.org/atomic"
)

// DefaultLabel is shown on the selector button when no chain is active.
const DefaultLabel = "Select Network"

const notificationDuration = 3000

const (
	privateNetworkAddedTitle  = "Private Development Network Added Successfully"
	privateNetworkFailedTitle = "Failed to create private network"
	switchFailedTitle         = "Failed to switch network"
)

var (
	// ErrCustomNetworksLocked is returned when custom networks are requested
	// while an allow-list is in force.
	ErrCustomNetworksLocked = errors.New("custom networks are not available with an allow-list")

	// ErrSelectorDisabled is returned when opening a disabled selector.
	ErrSelectorDisabled = errors.New("network selector is disabled")

	// ErrWalletNotConnected is returned for operations that need a wallet.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrInvalidProvisioningResult is returned for unusable provisioner output.
	ErrInvalidProvisioningResult = errors.New("invalid provisioning result")

	// ErrChainFiltered is returned for chains the picker does not offer.
	ErrChainFiltered = errors.New("chain is not offered by the network selector")

	// ErrInvalidChain is returned for user chain descriptors that cannot be used.
	ErrInvalidChain = errors.New("invalid chain descriptor")
)

// Private development network descriptor defaults.
var (
	PrivateNetworkIcon = interfaces.Icon{
		URL:    "https://app.nameless.io/favicon.svg",
		Width:  20,
		Height: 20,
		Format: "svg",
	}
	PrivateNetworkCurrency = interfaces.NativeCurrency{
		Name:     "ether",
		Symbol:   "ETH",
		Decimals: 18,
	}
)

const (
	privateNetworkShortName = "ST"
	privateNetworkSlug      = "stealthtest"
)

// Config holds the per-selector options.
type Config struct {
	User       string
	Filter     chains.Filter
	IsDisabled bool

	// OnSwitchChain is called for every chain this selector switches to,
	// including wallet-driven changes.
	OnSwitchChain func(chain interfaces.Chain)
}

// Dependencies are shared between the selectors of all users.
type Dependencies struct {
	Catalog     *chains.Catalog
	Configured  *chains.ConfiguredChains
	Recent      *chains.RecentlyUsed
	Provisioner interfaces.Provisioner
	Notifier    interfaces.Notifier
	Log         *slog.Logger
}

// View is the rendered state of the selector.
type View struct {
	Open            bool               `json:"open"`
	Label           string             `json:"label"`
	ButtonDisabled  bool               `json:"buttonDisabled"`
	ActiveChain     *interfaces.Chain  `json:"activeChain,omitempty"`
	Chains          []interfaces.Chain `json:"chains"`
	RecentChains    []interfaces.Chain `json:"recentChains"`
	PopularChains   []interfaces.Chain `json:"popularChains,omitempty"`
	CanCreateCustom bool               `json:"canCreateCustom"`
}

type Selector struct {
	cfg    Config
	deps   Dependencies
	wallet interfaces.Wallet
	log    *slog.Logger

	open atomic.Bool

	mu           sync.Mutex
	lastObserved interfaces.ChainID
	hasObserved  bool

	unsubscribe func()
}

// New creates a selector bound to wallet. The chain active at construction
// time is not reported as a transition.
func New(cfg Config, deps Dependencies, wallet interfaces.Wallet) *Selector {
	s := &Selector{
		cfg:    cfg,
		deps:   deps,
		wallet: wallet,
		log:    deps.Log.With("user", cfg.User),
	}

	if chain, ok := wallet.ActiveChain(); ok {
		s.lastObserved = chain.ChainID
		s.hasObserved = true
	}
	s.unsubscribe = wallet.Subscribe(s.handleWalletChange)

	return s
}

// Release stops listening to wallet changes.
func (s *Selector) Release() {
	s.unsubscribe()
}

// Open shows the picker. A disabled selector cannot be opened.
func (s *Selector) Open() error {
	if s.cfg.IsDisabled || !s.wallet.Connected() {
		return ErrSelectorDisabled
	}
	s.open.Store(true)
	return nil
}

func (s *Selector) Close() {
	s.open.Store(false)
}

func (s *Selector) IsOpen() bool {
	return s.open.Load()
}

// SupportedChains returns the catalog merged with the user's custom chains.
func (s *Selector) SupportedChains(ctx context.Context) ([]interfaces.Chain, error) {
	custom, err := s.deps.Configured.List(ctx, s.cfg.User)
	if err != nil {
		return nil, err
	}
	return s.deps.Catalog.Merge(custom), nil
}

// filters returns the configured filter narrowed by the given ones.
func (s *Selector) filters(narrow []chains.Filter) chains.Filters {
	return append(chains.Filters{s.cfg.Filter}, narrow...)
}

// View renders the selector. The optional filters narrow the configured one;
// they never bring back a chain it hides.
func (s *Selector) View(ctx context.Context, narrow ...chains.Filter) (*View, error) {
	filter := s.filters(narrow)

	supported, err := s.SupportedChains(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.deps.Recent.Resolve(ctx, s.cfg.User, supported)
	if err != nil {
		return nil, err
	}

	view := &View{
		Open:            s.IsOpen(),
		Label:           DefaultLabel,
		ButtonDisabled:  s.cfg.IsDisabled || !s.wallet.Connected(),
		Chains:          filter.Apply(supported),
		RecentChains:    filter.Apply(recent),
		CanCreateCustom: !filter.Locked(),
	}

	if !filter.Locked() {
		view.PopularChains = filter.Apply(s.deps.Catalog.Popular())
	}

	if chain, ok := s.wallet.ActiveChain(); ok {
		view.ActiveChain = &chain
		if chain.Name != "" {
			view.Label = chain.Name
		}
	}

	return view, nil
}

// Switch handles a chain picked by the user. The switch is recorded before
// the wallet is asked to follow; a wallet failure is notified and returned.
// Only chains offered under the selector filters can be picked.
func (s *Selector) Switch(ctx context.Context, id interfaces.ChainID, narrow ...chains.Filter) error {
	if !s.wallet.Connected() {
		return ErrWalletNotConnected
	}

	supported, err := s.SupportedChains(ctx)
	if err != nil {
		return err
	}
	chain, ok := interfaces.ChainsByID(supported)[id]
	if !ok {
		return fmt.Errorf("%w: %d", interfaces.ErrUnknownChain, id)
	}
	if !s.filters(narrow).Allows(id) {
		return fmt.Errorf("%w: %d", ErrChainFiltered, id)
	}

	s.Close()
	s.observe(id)
	s.recordSwitch(ctx, chain)

	return s.switchWallet(ctx, id)
}

// CreatePrivateNetwork provisions a private development network, registers
// it as a custom chain of the user and switches to it.
func (s *Selector) CreatePrivateNetwork(ctx context.Context, narrow ...chains.Filter) (*interfaces.Chain, error) {
	if s.filters(narrow).Locked() {
		return nil, ErrCustomNetworksLocked
	}
	if !s.wallet.Connected() {
		return nil, ErrWalletNotConnected
	}

	s.Close()

	chain, err := s.provision(ctx)
	if err != nil {
		s.log.Error("Failed to create private network", "err", err)
		s.notify(ctx, privateNetworkFailedTitle, interfaces.NotificationError)
		return nil, err
	}

	if err := s.deps.Configured.Modify(ctx, s.cfg.User, *chain); err != nil {
		s.log.Error("Failed to register private network", "err", err, "chainId", chain.ChainID.String())
		s.notify(ctx, privateNetworkFailedTitle, interfaces.NotificationError)
		return nil, err
	}

	s.observe(chain.ChainID)
	s.recordSwitch(ctx, *chain)
	s.notify(ctx, privateNetworkAddedTitle, interfaces.NotificationSuccess)

	if err := s.switchWallet(ctx, chain.ChainID); err != nil {
		return chain, err
	}
	return chain, nil
}

// ConfigureChain adds or replaces a chain of the user's own. The chain is
// not switched to.
func (s *Selector) ConfigureChain(ctx context.Context, chain interfaces.Chain, narrow ...chains.Filter) (*interfaces.Chain, error) {
	filter := s.filters(narrow)
	if filter.Locked() {
		return nil, ErrCustomNetworksLocked
	}

	switch {
	case strings.TrimSpace(chain.Name) == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidChain)
	case len(chain.RPC) == 0 || strings.TrimSpace(chain.RPC[0]) == "":
		return nil, fmt.Errorf("%w: at least one rpc url is required", ErrInvalidChain)
	case chain.ChainID < 0:
		return nil, fmt.Errorf("%w: negative chain id", ErrInvalidChain)
	}
	if !filter.Allows(chain.ChainID) {
		return nil, fmt.Errorf("%w: %d", ErrChainFiltered, chain.ChainID)
	}

	chain.IsCustom = true
	if chain.Title == "" {
		chain.Title = chain.Name
	}
	if chain.Chain == "" {
		chain.Chain = chain.ChainID.String()
	}

	s.Close()

	if err := s.deps.Configured.Modify(ctx, s.cfg.User, chain); err != nil {
		s.log.Error("Failed to configure chain", "err", err, "chainId", chain.ChainID.String())
		return nil, err
	}
	return &chain, nil
}

// RemoveCustomChain removes a chain provisioned or configured by the user.
func (s *Selector) RemoveCustomChain(ctx context.Context, id interfaces.ChainID, narrow ...chains.Filter) error {
	if s.filters(narrow).Locked() {
		return ErrCustomNetworksLocked
	}
	return s.deps.Configured.Remove(ctx, s.cfg.User, id)
}

func (s *Selector) provision(ctx context.Context) (*interfaces.Chain, error) {
	result, err := s.deps.Provisioner.CreatePrivateNetwork(ctx)
	if err != nil {
		return nil, err
	}
	return PrivateNetworkChain(result)
}

// PrivateNetworkChain builds the chain descriptor of a provisioned network.
func PrivateNetworkChain(result *interfaces.ProvisioningResult) (*interfaces.Chain, error) {
	switch {
	case result == nil:
		return nil, fmt.Errorf("%w: empty result", ErrInvalidProvisioningResult)
	case result.Status == interfaces.ProvisioningStatusError:
		return nil, fmt.Errorf("%w: status %s", ErrInvalidProvisioningResult, result.Status)
	case result.Networks.Eth == nil || result.Networks.Eth.URL == "":
		return nil, fmt.Errorf("%w: missing eth network url", ErrInvalidProvisioningResult)
	}

	icon := PrivateNetworkIcon
	return &interfaces.Chain{
		ChainID:        result.ChainID,
		Name:           result.Name,
		Title:          result.Name,
		Chain:          strconv.FormatInt(int64(result.ChainID), 10),
		ShortName:      privateNetworkShortName,
		Slug:           privateNetworkSlug,
		Icon:           &icon,
		RPC:            []string{result.Networks.Eth.URL},
		NativeCurrency: PrivateNetworkCurrency,
		Testnet:        true,
		IsCustom:       true,
	}, nil
}

// handleWalletChange receives transitions from the wallet.
func (s *Selector) handleWalletChange(chain interfaces.Chain) {
	if !s.observe(chain.ChainID) {
		return
	}
	s.recordSwitch(context.Background(), chain)
}

// observe records id as the last seen chain and reports whether it differs
// from the previous one.
func (s *Selector) observe(id interfaces.ChainID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasObserved && s.lastObserved == id {
		return false
	}
	s.lastObserved = id
	s.hasObserved = true
	return true
}

func (s *Selector) recordSwitch(ctx context.Context, chain interfaces.Chain) {
	if s.cfg.OnSwitchChain != nil {
		s.cfg.OnSwitchChain(chain)
	}

	if err := s.deps.Recent.Add(ctx, s.cfg.User, chain.ChainID); err != nil {
		s.log.Warn("Could not record recent chain", "err", err, "chainId", chain.ChainID.String())
	}

	s.deps.Notifier.ChainSwitched(ctx, s.cfg.User, chain)
}

// resync points the last observed chain back at the wallet's active chain.
func (s *Selector) resync() {
	chain, ok := s.wallet.ActiveChain()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastObserved = chain.ChainID
	s.hasObserved = ok
}

func (s *Selector) switchWallet(ctx context.Context, id interfaces.ChainID) error {
	if err := s.wallet.SwitchChain(ctx, id); err != nil {
		// The wallet stayed where it was, so reporting id later is a real transition.
		s.resync()
		s.log.Error("Wallet switch failed", "err", err, "chainId", id.String())
		s.notify(ctx, switchFailedTitle, interfaces.NotificationError)
		return fmt.Errorf("could not switch wallet to chain %d: %w", id, err)
	}
	return nil
}

func (s *Selector) notify(ctx context.Context, title string, status interfaces.NotificationStatus) {
	s.deps.Notifier.Notify(ctx, s.cfg.User, interfaces.Notification{
		Title:    title,
		Status:   status,
		Duration: notificationDuration,
	})
}
