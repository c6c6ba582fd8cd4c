package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// MultiStateBackend implements interfaces.StateBackend using multiple backends with fallback.
type MultiStateBackend struct {
	backends []interfaces.StateBackend
	log      *slog.Logger
}

// NewMultiStateBackend creates a new multi-state backend with fallback.
func NewMultiStateBackend(backends []interfaces.StateBackend, logger *slog.Logger) *MultiStateBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStateBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the value from the first available backend holding key.
func (m *MultiStateBackend) Fetch(ctx context.Context, key interfaces.StateKey) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key.String()))
			continue
		}

		data, err := backend.Fetch(ctx, key)
		if err == nil {
			m.log.Debug("Fetched state",
				slog.String("backend_name", backend.Name()),
				slog.String("key", key.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrContentNotFound) {
			notFound++
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("key", key.String()),
			"err", err)
	}

	if len(errs) == 0 && notFound > 0 {
		return nil, interfaces.ErrContentNotFound
	}

	m.log.Error("All backends failed to fetch state",
		slog.String("key", key.String()),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("%w: all backends failed to fetch %s: %v", interfaces.ErrBackendUnavailable, key, errs)
}

// Store saves data to all available backends. It succeeds when at least one backend accepted the write.
func (m *MultiStateBackend) Store(ctx context.Context, key interfaces.StateKey, data []byte) error {
	return m.forEachAvailable(ctx, "store", key, func(backend interfaces.StateBackend) error {
		return backend.Store(ctx, key, data)
	})
}

// Delete removes key from all available backends.
func (m *MultiStateBackend) Delete(ctx context.Context, key interfaces.StateKey) error {
	return m.forEachAvailable(ctx, "delete", key, func(backend interfaces.StateBackend) error {
		return backend.Delete(ctx, key)
	})
}

func (m *MultiStateBackend) forEachAvailable(ctx context.Context, op string, key interfaces.StateKey, fn func(interfaces.StateBackend) error) error {
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := fn(backend); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Backend operation failed",
				slog.String("op", op),
				slog.String("backend_name", backend.Name()),
				slog.String("key", key.String()),
				"err", err)
			continue
		}
		success = true
	}

	if !success {
		return fmt.Errorf("%w: all backends failed to %s %s: %v", interfaces.ErrBackendUnavailable, op, key, errs)
	}
	return nil
}

// Available checks if any backend is available.
func (m *MultiStateBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiStateBackend) Name() string {
	return "multi-state"
}

// LocationURI returns a combined location URI of all backends.
func (m *MultiStateBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
