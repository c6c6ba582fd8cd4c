package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// VaultBackend implements a state backend using the HashiCorp Vault KV v2 engine.
// Private network RPC endpoints are bearer URLs, so deployments that treat
// them as secrets can keep the configured chains in Vault.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault state backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "dashboard")
//   - token: Vault token; when empty the VAULT_TOKEN environment variable is used
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves data from Vault by its key.
func (b *VaultBackend) Fetch(ctx context.Context, key interfaces.StateKey) ([]byte, error) {
	start := time.Now()
	path := b.secretPath(key)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrContentNotFound
	}

	// KV v2 wraps the payload in a "data" map; deleted versions carry nil data
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return nil, interfaces.ErrContentNotFound
	}

	content, ok := data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid content format in Vault data at %s", path)
	}

	b.log.Debug("Fetched state from Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return []byte(content), nil
}

// Store saves data to Vault under key.
func (b *VaultBackend) Store(ctx context.Context, key interfaces.StateKey, data []byte) error {
	path := b.secretPath(key)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored state in Vault", slog.String("path", path))
	return nil
}

// Delete removes all versions and metadata of key.
func (b *VaultBackend) Delete(ctx context.Context, key interfaces.StateKey) error {
	path := fmt.Sprintf("%s/metadata/%s/%s", b.mountPath, b.dataPath, key.String())
	if _, err := b.client.Logical().DeleteWithContext(ctx, path); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available checks that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this state backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this state backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) secretPath(key interfaces.StateKey) string {
	return fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, key.String())
}
