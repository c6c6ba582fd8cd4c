package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// StateBackendFactory creates state backends from location URIs.
type StateBackendFactory struct {
	log *slog.Logger
}

// NewStateBackendFactory creates a new factory instance that can create state backends.
func NewStateBackendFactory(logger *slog.Logger) *StateBackendFactory {
	return &StateBackendFactory{
		log: logger,
	}
}

// StateBackendFor creates a state backend from a location URI.
//
// Supported schemes:
//   - memory:// - Process-local state
//   - file:// - Local filesystem state
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2
func (sf *StateBackendFactory) StateBackendFor(location interfaces.StateBackendLocation) (interfaces.StateBackend, error) {
	switch location.Scheme {
	case "memory":
		return NewMemoryBackend(sf.log), nil
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "vault":
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend creates a state backend replicating to every URI.
// A single URI yields the plain backend.
func (sf *StateBackendFactory) CreateMultiBackend(uris []string) (interfaces.StateBackend, error) {
	backends := make([]interfaces.StateBackend, 0, len(uris))

	for _, uri := range uris {
		location, err := interfaces.NewStateBackendLocation(uri)
		if err != nil {
			return nil, err
		}
		backend, err := sf.StateBackendFor(location)
		if err != nil {
			return nil, fmt.Errorf("could not create state backend %s: %w", uri, err)
		}
		backends = append(backends, backend)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("%w: no state backends configured", interfaces.ErrInvalidLocationURI)
	case 1:
		return backends[0], nil
	default:
		return NewMultiStateBackend(backends, sf.log), nil
	}
}

// createFileBackend creates a file system state backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StateBackendFactory) createFileBackend(location interfaces.StateBackendLocation) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.String()))

	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, location.String())
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible state backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *StateBackendFactory) createS3Backend(location interfaces.StateBackendLocation) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", location.Host))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in S3 URI", interfaces.ErrInvalidLocationURI)
	}

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if location.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(location.Auth, ":")
	}

	return NewS3Backend(location.Host, strings.TrimPrefix(location.Path, "/"), region, location.GetParam("endpoint"), accessKey, secretKey, sf.log)
}

// createVaultBackend creates a Vault KV v2 state backend.
// URI format: vault://host:port/mount/path?tls=true
// The token is read from the VAULT_TOKEN environment variable.
func (sf *StateBackendFactory) createVaultBackend(location interfaces.StateBackendLocation) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", location.Host))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing host in Vault URI", interfaces.ErrInvalidLocationURI)
	}

	mountPath, dataPath, _ := strings.Cut(strings.Trim(location.Path, "/"), "/")
	if mountPath == "" {
		mountPath = "secret"
	}
	if dataPath == "" {
		dataPath = "dashboard"
	}

	scheme := "http"
	if location.GetParamBool("tls") {
		scheme = "https"
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, location.Host), mountPath, dataPath, "", sf.log)
}
