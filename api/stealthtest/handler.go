package stealthtest

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/devnet-dashboard-backend/api/environments"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// Route is the path of the provisioning proxy.
const Route = "/api/stealthtest"

// MaxChainID is the exclusive upper bound of generated chain ids.
const MaxChainID = 999999

// Network selector sent upstream. Only the "eth" network is provisioned.
var provisionedNetworks = []string{"eth"}

// EnvironmentCreator creates upstream environments.
type EnvironmentCreator interface {
	Create(ctx context.Context, req environments.CreateRequest) (json.RawMessage, error)
}

// Handler serves the provisioning proxy.
type Handler struct {
	creator         EnvironmentCreator
	environmentName string
	randomChainID   func() interfaces.ChainID
	log             *slog.Logger
}

// NewHandler creates the proxy handler from cfg. It fails when the API key
// is missing so that a misconfigured server never starts.
func NewHandler(cfg *Config, log *slog.Logger) (*Handler, error) {
	client, err := environments.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, err
	}
	return NewHandlerWithCreator(client, cfg.EnvironmentName, log), nil
}

// NewHandlerWithCreator creates the proxy handler around an existing creator.
func NewHandlerWithCreator(creator EnvironmentCreator, environmentName string, log *slog.Logger) *Handler {
	if environmentName == "" {
		environmentName = "StealthTest"
	}
	return &Handler{
		creator:         creator,
		environmentName: environmentName,
		randomChainID:   RandomChainID,
		log:             log,
	}
}

// RandomChainID draws a chain id uniformly from [0, MaxChainID).
func RandomChainID() interfaces.ChainID {
	return interfaces.ChainID(rand.Int64N(MaxChainID))
}

// RegisterRoutes mounts the proxy for every method so that non-POST requests
// get the proxy's own 400 response.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc(Route, h.HandleCreate)
}

// HandleCreate provisions a new environment.
//
// URL format: POST /api/stealthtest
//
// Status codes:
//   - 201 Created: {"success":true,"data":<upstream data>}
//   - 400 Bad Request: method other than POST, no upstream call is made
//   - 500 Internal Server Error: upstream call failed, no retry is made
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid method"})
		return
	}

	req := environments.CreateRequest{
		Name:     h.environmentName,
		Networks: provisionedNetworks,
		ChainID:  h.randomChainID(),
	}

	data, err := h.creator.Create(r.Context(), req)
	if err != nil {
		h.log.Error("Failed to create environment", "err", err, slog.String("chainId", req.ChainID.String()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	h.log.Info("Environment created", slog.String("chainId", req.ChainID.String()))
	writeJSON(w, http.StatusCreated, interfaces.ProvisioningResponse{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
