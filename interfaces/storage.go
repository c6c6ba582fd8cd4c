package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// StateKey names a stored value, e.g. "configured-chains/alice".
type StateKey string

// NewStateKey joins a namespace and an owner into a key. The owner is escaped
// so that arbitrary user identifiers map to a single path segment.
func NewStateKey(namespace, owner string) StateKey {
	return StateKey(namespace + "/" + url.PathEscape(owner))
}

// String returns the key as a path.
func (k StateKey) String() string {
	return string(k)
}

// StateBackendLocation represents URI for state backend.
type StateBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewStateBackendLocation creates a new state location from a URI string with validation.
func NewStateBackendLocation(uri string) (StateBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StateBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "memory", "file", "s3", "vault":
	default:
		return StateBackendLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StateBackendLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc StateBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StateBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StateBackendLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrContentNotFound is returned when requested content cannot be found in the state backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a state backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("state backend unavailable")

	// ErrInvalidLocationURI is returned when a state location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid state location URI")
)

// StateBackend provides key/value storage for user-scoped dashboard state.
type StateBackend interface {
	// Fetch retrieves data by key. Returns ErrContentNotFound when absent.
	Fetch(ctx context.Context, key StateKey) ([]byte, error)

	// Store saves data under key, replacing any previous value.
	Store(ctx context.Context, key StateKey, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key StateKey) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StateBackendFactory creates state backends.
type StateBackendFactory interface {
	// StateBackendFor creates backend from URI.
	// Supports memory://, file://, s3://, vault://
	StateBackendFor(location StateBackendLocation) (StateBackend, error)
}
