// Package interfaces defines core interfaces and types for the devnet dashboard
// backend, separating interface definitions from implementations.
//
// The package provides interfaces for the key components of the system:
//
// # State Interfaces
//
// StateBackend: Key/value storage for user-scoped dashboard state (configured
// chains, recently used chains) across multiple backend types (memory, file,
// S3, Vault).
//
// StateBackendFactory: Creates state backends from URI strings.
//
// # Capability Interfaces
//
// Wallet: The chain-switch surface of a connected wallet. It exposes the active
// chain, the supported chains, an imperative switch and a change subscription.
//
// Provisioner: Creates ephemeral private networks through the provisioning proxy.
//
// Revealer: Reveals a password-protected batch of deferred-reveal metadata.
//
// Notifier: Delivers user-visible notifications and switch events.
//
// # Types
//
//   - Chain: Chain descriptor shared by the catalog and user-provisioned networks
//   - ProvisioningResult: Payload returned by the upstream provisioning API
//   - BatchToReveal: A previously uploaded batch awaiting reveal
//   - Notification, Event: Messages delivered to dashboard clients
package interfaces
