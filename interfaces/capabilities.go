package interfaces

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrProvisioningFailed is returned when the upstream reports a failed environment.
var ErrProvisioningFailed = errors.New("provisioning failed")

// ProvisioningStatusError is the status reported by the upstream for failed environments.
const ProvisioningStatusError = "ERROR"

// EthNetwork is the endpoint of the "eth" network of a provisioned environment.
type EthNetwork struct {
	URL string `json:"url"`
}

// ProvisionedNetworks lists the networks of a provisioned environment.
type ProvisionedNetworks struct {
	Eth *EthNetwork `json:"eth,omitempty"`
}

// ProvisioningResult is the environment description returned by the upstream
// provisioning API. It is never persisted, only used to derive a Chain.
type ProvisioningResult struct {
	Status   string              `json:"status"`
	ChainID  ChainID             `json:"chainId"`
	Name     string              `json:"name"`
	Networks ProvisionedNetworks `json:"networks"`
}

// ProvisioningResponse is the body returned by the provisioning proxy.
type ProvisioningResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Provisioner creates ephemeral private networks.
type Provisioner interface {
	CreatePrivateNetwork(ctx context.Context) (*ProvisioningResult, error)
}

// ChainListener is notified of active chain transitions.
type ChainListener func(chain Chain)

// Wallet is the chain-switch surface of a connected wallet.
type Wallet interface {
	// Connected reports whether a wallet is attached to the session.
	Connected() bool

	// ActiveChain returns the active chain, or false when none is selected.
	ActiveChain() (Chain, bool)

	// SupportedChains returns every chain the wallet can switch to.
	SupportedChains(ctx context.Context) ([]Chain, error)

	// SwitchChain makes id the active chain.
	SwitchChain(ctx context.Context, id ChainID) error

	// Subscribe registers a listener invoked once per active chain transition.
	// The returned function removes the listener.
	Subscribe(listener ChainListener) (unsubscribe func())
}

// Revealer reveals a password-protected batch of deferred-reveal metadata.
type Revealer interface {
	Reveal(ctx context.Context, req RevealRequest) error
}

// NotificationStatus is the severity of a notification.
type NotificationStatus string

const (
	NotificationSuccess NotificationStatus = "success"
	NotificationError   NotificationStatus = "error"
)

// Notification is a non-blocking, user-visible message.
type Notification struct {
	Title    string             `json:"title"`
	Status   NotificationStatus `json:"status"`
	Duration int64              `json:"durationMs"`
}

// EventType distinguishes the messages streamed to dashboard clients.
type EventType string

const (
	EventNotification  EventType = "notification"
	EventChainSwitched EventType = "chain_switched"
)

// Event is delivered to every subscriber of a user.
type Event struct {
	Type         EventType     `json:"type"`
	User         string        `json:"-"`
	Notification *Notification `json:"notification,omitempty"`
	Chain        *Chain        `json:"chain,omitempty"`
	Timestamp    int64         `json:"timestamp"`
}

// Notifier delivers notifications and switch events to a user.
type Notifier interface {
	Notify(ctx context.Context, user string, n Notification)
	ChainSwitched(ctx context.Context, user string, chain Chain)
}
