package selector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ruteri/devnet-dashboard-backend/chains"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/storage"
	"github.com/ruteri/devnet-dashboard-backend/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) CreatePrivateNetwork(ctx context.Context) (*interfaces.ProvisioningResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ProvisioningResult), args.Error(1)
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []interfaces.Notification
	switched      []interfaces.ChainID
}

func (n *recordingNotifier) Notify(ctx context.Context, user string, notification interfaces.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) ChainSwitched(ctx context.Context, user string, chain interfaces.Chain) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.switched = append(n.switched, chain.ChainID)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.notifications))
	for _, notification := range n.notifications {
		titles = append(titles, notification.Title)
	}
	return titles
}

type fixture struct {
	selector    *Selector
	session     *wallet.Session
	provisioner *MockProvisioner
	notifier    *recordingNotifier
	deps        Dependencies
	switched    []interfaces.ChainID
}

func newFixture(t *testing.T, filter chains.Filter, rpcChain wallet.RPCChainIDFunc) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := storage.NewMemoryBackend(log)

	f := &fixture{
		provisioner: new(MockProvisioner),
		notifier:    &recordingNotifier{},
	}
	f.deps = Dependencies{
		Catalog:     chains.DefaultCatalog(),
		Configured:  chains.NewConfiguredChains(backend, log),
		Recent:      chains.NewRecentlyUsed(backend, chains.DefaultRecentLimit),
		Provisioner: f.provisioner,
		Notifier:    f.notifier,
		Log:         log,
	}

	registry := NewRegistry(Config{
		Filter: filter,
		OnSwitchChain: func(chain interfaces.Chain) {
			f.switched = append(f.switched, chain.ChainID)
		},
	}, f.deps, rpcChain)
	t.Cleanup(registry.Close)

	f.selector = registry.Get("alice")
	f.session = registry.Session("alice")
	return f
}

func (f *fixture) recentIDs(t *testing.T) []interfaces.ChainID {
	ids, err := f.deps.Recent.IDs(context.Background(), "alice")
	require.NoError(t, err)
	return ids
}

func ids(chains []interfaces.Chain) []interfaces.ChainID {
	out := make([]interfaces.ChainID, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.ChainID)
	}
	return out
}

func TestSelector_ViewWithoutWallet(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)

	view, err := f.selector.View(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultLabel, view.Label)
	assert.True(t, view.ButtonDisabled)
	assert.Nil(t, view.ActiveChain)
	assert.True(t, view.CanCreateCustom)
	assert.Equal(t, []interfaces.ChainID{1, 137, 10, 42161, 8453}, ids(view.PopularChains))
	assert.Empty(t, view.RecentChains)
}

func TestSelector_ViewFilters(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)
	ctx := context.Background()

	require.NoError(t, f.deps.Recent.Add(ctx, "alice", 10))
	require.NoError(t, f.deps.Recent.Add(ctx, "alice", 137))
	require.NoError(t, f.deps.Recent.Add(ctx, "alice", 1))

	view, err := f.selector.View(ctx, chains.Filter{Disabled: []interfaces.ChainID{1, 137}})
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ChainID{10}, ids(view.RecentChains))
	assert.NotContains(t, ids(view.Chains), interfaces.ChainID(1))
	assert.NotContains(t, ids(view.Chains), interfaces.ChainID(137))
	assert.True(t, view.CanCreateCustom)

	view, err = f.selector.View(ctx, chains.Filter{Enabled: []interfaces.ChainID{1, 8453}})
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ChainID{1, 8453}, ids(view.Chains))
	assert.Equal(t, []interfaces.ChainID{1}, ids(view.RecentChains))
	assert.Nil(t, view.PopularChains)
	assert.False(t, view.CanCreateCustom)
}

func TestSelector_OpenClose(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)

	assert.ErrorIs(t, f.selector.Open(), ErrSelectorDisabled)
	assert.False(t, f.selector.IsOpen())

	require.NoError(t, f.session.ReportActiveChain(context.Background(), 1))
	require.NoError(t, f.selector.Open())
	assert.True(t, f.selector.IsOpen())
	f.selector.Close()
	assert.False(t, f.selector.IsOpen())
}

func TestSelector_WalletDrivenChange(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)
	ctx := context.Background()

	require.NoError(t, f.session.ReportActiveChain(ctx, 1))
	require.NoError(t, f.session.ReportActiveChain(ctx, 1))
	require.NoError(t, f.session.ReportActiveChain(ctx, 10))

	assert.Equal(t, []interfaces.ChainID{1, 10}, f.switched)
	assert.Equal(t, []interfaces.ChainID{10, 1}, f.recentIDs(t))
	assert.Equal(t, []interfaces.ChainID{1, 10}, f.notifier.switched)

	view, err := f.selector.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OP Mainnet", view.Label)
	assert.False(t, view.ButtonDisabled)
}

func TestSelector_Switch(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, f.selector.Switch(ctx, 10), ErrWalletNotConnected)
	assert.Empty(t, f.switched)

	require.NoError(t, f.session.ReportActiveChain(ctx, 1))
	require.NoError(t, f.selector.Open())

	require.NoError(t, f.selector.Switch(ctx, 137))
	assert.False(t, f.selector.IsOpen())

	// The wallet transition produced by the switch is not reported again.
	assert.Equal(t, []interfaces.ChainID{1, 137}, f.switched)
	assert.Equal(t, []interfaces.ChainID{137, 1}, f.recentIDs(t))

	active, ok := f.session.ActiveChain()
	require.True(t, ok)
	assert.Equal(t, interfaces.ChainID(137), active.ChainID)

	assert.ErrorIs(t, f.selector.Switch(ctx, 424242), interfaces.ErrUnknownChain)
}

func TestSelector_SwitchWalletFailure(t *testing.T) {
	f := newFixture(t, chains.Filter{}, func(ctx context.Context, url string) (interfaces.ChainID, error) {
		return 0, errors.New("rpc unreachable")
	})
	ctx := context.Background()

	require.NoError(t, f.session.ReportActiveChain(ctx, 1))

	err := f.selector.Switch(ctx, 10)
	require.Error(t, err)

	assert.Equal(t, []interfaces.ChainID{10, 1}, f.recentIDs(t))
	assert.Equal(t, []string{switchFailedTitle}, f.notifier.titles())

	active, _ := f.session.ActiveChain()
	assert.Equal(t, interfaces.ChainID(1), active.ChainID)
}

func TestSelector_SwitchHonoursFilter(t *testing.T) {
	f := newFixture(t, chains.Filter{Disabled: []interfaces.ChainID{137}}, nil)
	ctx := context.Background()
	require.NoError(t, f.session.ReportActiveChain(ctx, 1))

	assert.ErrorIs(t, f.selector.Switch(ctx, 137), ErrChainFiltered)
	assert.ErrorIs(t, f.selector.Switch(ctx, 10, chains.Filter{Enabled: []interfaces.ChainID{1}}), ErrChainFiltered)
	assert.Equal(t, []interfaces.ChainID{1}, f.recentIDs(t))
	assert.Equal(t, []interfaces.ChainID{1}, f.switched)

	// A request filter cannot re-enable a chain hidden by the configured one.
	view, err := f.selector.View(ctx, chains.Filter{Disabled: []interfaces.ChainID{42}})
	require.NoError(t, err)
	assert.NotContains(t, ids(view.Chains), interfaces.ChainID(137))

	// The wallet can still move to a hidden chain on its own.
	require.NoError(t, f.session.ReportActiveChain(ctx, 137))
	assert.Equal(t, []interfaces.ChainID{137, 1}, f.recentIDs(t))

	require.NoError(t, f.selector.Switch(ctx, 10))
	active, _ := f.session.ActiveChain()
	assert.Equal(t, interfaces.ChainID(10), active.ChainID)
}

func TestSelector_SwitchFailureKeepsWalletTracking(t *testing.T) {
	f := newFixture(t, chains.Filter{}, func(ctx context.Context, url string) (interfaces.ChainID, error) {
		return 0, errors.New("rpc unreachable")
	})
	ctx := context.Background()
	require.NoError(t, f.session.ReportActiveChain(ctx, 1))

	require.Error(t, f.selector.Switch(ctx, 10))
	assert.Equal(t, []interfaces.ChainID{1, 10}, f.switched)

	// The wallet later reaches the chain by itself; the transition is reported.
	require.NoError(t, f.session.ReportActiveChain(ctx, 10))
	assert.Equal(t, []interfaces.ChainID{1, 10, 10}, f.switched)
	assert.Equal(t, []interfaces.ChainID{1, 10, 10}, f.notifier.switched)
}

func TestSelector_ConfigureChain(t *testing.T) {
	f := newFixture(t, chains.Filter{Disabled: []interfaces.ChainID{137}}, nil)
	ctx := context.Background()
	require.NoError(t, f.session.ReportActiveChain(ctx, 1))
	require.NoError(t, f.selector.Open())

	chain, err := f.selector.ConfigureChain(ctx, interfaces.Chain{
		ChainID: 31337,
		Name:    "Local Anvil",
		RPC:     []string{"http://127.0.0.1:8545"},
	})
	require.NoError(t, err)
	assert.True(t, chain.IsCustom)
	assert.Equal(t, "Local Anvil", chain.Title)
	assert.Equal(t, "31337", chain.Chain)
	assert.False(t, f.selector.IsOpen())

	// Editing replaces the stored descriptor.
	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{
		ChainID: 31337,
		Name:    "Local Anvil (8546)",
		RPC:     []string{"http://127.0.0.1:8546"},
	})
	require.NoError(t, err)

	custom, err := f.deps.Configured.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Local Anvil (8546)", custom[0].Name)
	assert.Equal(t, []string{"http://127.0.0.1:8546"}, custom[0].RPC)

	// Configuring does not switch.
	active, _ := f.session.ActiveChain()
	assert.Equal(t, interfaces.ChainID(1), active.ChainID)
	assert.Equal(t, []interfaces.ChainID{1}, f.switched)

	require.NoError(t, f.selector.Switch(ctx, 31337))
	active, _ = f.session.ActiveChain()
	assert.Equal(t, "Local Anvil (8546)", active.Name)

	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{ChainID: 5, RPC: []string{"http://rpc"}})
	assert.ErrorIs(t, err, ErrInvalidChain)
	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{ChainID: 5, Name: "No RPC"})
	assert.ErrorIs(t, err, ErrInvalidChain)
	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{ChainID: 137, Name: "Hidden", RPC: []string{"http://rpc"}})
	assert.ErrorIs(t, err, ErrChainFiltered)
	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{ChainID: 5, Name: "Locked", RPC: []string{"http://rpc"}},
		chains.Filter{Enabled: []interfaces.ChainID{1}})
	assert.ErrorIs(t, err, ErrCustomNetworksLocked)

	custom, err = f.deps.Configured.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, custom, 1)
}

func TestSelector_CreatePrivateNetwork(t *testing.T) {
	f := newFixture(t, chains.Filter{}, nil)
	ctx := context.Background()

	require.NoError(t, f.session.ReportActiveChain(ctx, 1))
	require.NoError(t, f.selector.Open())

	f.provisioner.On("CreatePrivateNetwork", mock.Anything).Return(&interfaces.ProvisioningResult{
		Status:  "READY",
		ChainID: 4242,
		Name:    "StealthTest",
		Networks: interfaces.ProvisionedNetworks{
			Eth: &interfaces.EthNetwork{URL: "https://rpc.stealthtest.example/4242"},
		},
	}, nil).Once()

	chain, err := f.selector.CreatePrivateNetwork(ctx)
	require.NoError(t, err)
	f.provisioner.AssertExpectations(t)

	assert.False(t, f.selector.IsOpen())
	assert.Equal(t, interfaces.ChainID(4242), chain.ChainID)
	assert.Equal(t, "StealthTest", chain.Name)
	assert.Equal(t, "StealthTest", chain.Title)
	assert.Equal(t, "4242", chain.Chain)
	assert.Equal(t, "ST", chain.ShortName)
	assert.Equal(t, "stealthtest", chain.Slug)
	assert.Equal(t, []string{"https://rpc.stealthtest.example/4242"}, chain.RPC)
	assert.Equal(t, PrivateNetworkCurrency, chain.NativeCurrency)
	require.NotNil(t, chain.Icon)
	assert.Equal(t, "https://app.nameless.io/favicon.svg", chain.Icon.URL)
	assert.True(t, chain.Testnet)
	assert.True(t, chain.IsCustom)

	custom, err := f.deps.Configured.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ChainID{4242}, ids(custom))

	assert.Equal(t, []interfaces.ChainID{1, 4242}, f.switched)
	assert.Equal(t, []interfaces.ChainID{4242, 1}, f.recentIDs(t))
	assert.Equal(t, []string{privateNetworkAddedTitle}, f.notifier.titles())

	active, _ := f.session.ActiveChain()
	assert.Equal(t, interfaces.ChainID(4242), active.ChainID)

	view, err := f.selector.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "StealthTest", view.Label)
	assert.Contains(t, ids(view.Chains), interfaces.ChainID(4242))

	require.NoError(t, f.selector.RemoveCustomChain(ctx, 4242))
	custom, err = f.deps.Configured.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, custom)
}

func TestSelector_CreatePrivateNetworkFailures(t *testing.T) {
	tests := []struct {
		name   string
		result *interfaces.ProvisioningResult
		err    error
	}{
		{
			name: "provisioner error",
			err:  interfaces.ErrProvisioningFailed,
		},
		{
			name: "error status",
			result: &interfaces.ProvisioningResult{
				Status:   interfaces.ProvisioningStatusError,
				ChainID:  7,
				Networks: interfaces.ProvisionedNetworks{Eth: &interfaces.EthNetwork{URL: "https://rpc.example"}},
			},
		},
		{
			name:   "missing eth network",
			result: &interfaces.ProvisioningResult{Status: "READY", ChainID: 7},
		},
		{
			name: "empty url",
			result: &interfaces.ProvisioningResult{
				Status:   "READY",
				ChainID:  7,
				Networks: interfaces.ProvisionedNetworks{Eth: &interfaces.EthNetwork{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, chains.Filter{}, nil)
			ctx := context.Background()
			require.NoError(t, f.session.ReportActiveChain(ctx, 1))
			require.NoError(t, f.selector.Open())

			if tt.result != nil {
				f.provisioner.On("CreatePrivateNetwork", mock.Anything).Return(tt.result, nil).Once()
			} else {
				f.provisioner.On("CreatePrivateNetwork", mock.Anything).Return(nil, tt.err).Once()
			}

			chain, err := f.selector.CreatePrivateNetwork(ctx)
			require.Error(t, err)
			assert.Nil(t, chain)
			assert.False(t, f.selector.IsOpen())

			custom, err := f.deps.Configured.List(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, custom)

			assert.Equal(t, []interfaces.ChainID{1}, f.switched)
			assert.Equal(t, []interfaces.ChainID{1}, f.recentIDs(t))
			assert.Equal(t, []string{privateNetworkFailedTitle}, f.notifier.titles())

			active, _ := f.session.ActiveChain()
			assert.Equal(t, interfaces.ChainID(1), active.ChainID)
		})
	}
}

func TestSelector_CustomNetworksLocked(t *testing.T) {
	f := newFixture(t, chains.Filter{Enabled: []interfaces.ChainID{1}}, nil)
	ctx := context.Background()
	require.NoError(t, f.session.ReportActiveChain(ctx, 1))

	_, err := f.selector.CreatePrivateNetwork(ctx)
	assert.ErrorIs(t, err, ErrCustomNetworksLocked)
	assert.ErrorIs(t, f.selector.RemoveCustomChain(ctx, 1), ErrCustomNetworksLocked)
	_, err = f.selector.ConfigureChain(ctx, interfaces.Chain{ChainID: 5, Name: "Local", RPC: []string{"http://rpc"}})
	assert.ErrorIs(t, err, ErrCustomNetworksLocked)
	f.provisioner.AssertNotCalled(t, "CreatePrivateNetwork", mock.Anything)

	view, err := f.selector.View(ctx)
	require.NoError(t, err)
	assert.False(t, view.CanCreateCustom)
	assert.Nil(t, view.PopularChains)
}

func TestRegistry_SelectorPerUser(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := storage.NewMemoryBackend(log)
	registry := NewRegistry(Config{}, Dependencies{
		Catalog:    chains.DefaultCatalog(),
		Configured: chains.NewConfiguredChains(backend, log),
		Recent:     chains.NewRecentlyUsed(backend, chains.DefaultRecentLimit),
		Notifier:   &recordingNotifier{},
		Log:        log,
	}, nil)
	defer registry.Close()

	alice := registry.Get("alice")
	assert.Same(t, alice, registry.Get("alice"))
	assert.NotSame(t, alice, registry.Get("bob"))
	assert.Same(t, registry.Session("alice"), registry.Session("alice"))
}
