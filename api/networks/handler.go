package networks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/devnet-dashboard-backend/api"
	"github.com/ruteri/devnet-dashboard-backend/chains"
	"github.com/ruteri/devnet-dashboard-backend/events"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/selector"
)

const maxRequestSize = 4096

// Handler serves the per-user network selectors of a registry.
type Handler struct {
	registry *selector.Registry
	hub      *events.Hub
	log      *slog.Logger
}

func NewHandler(registry *selector.Registry, hub *events.Hub, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/networks", h.HandleView)
	r.Post("/api/networks/open", h.HandleOpen)
	r.Post("/api/networks/close", h.HandleClose)
	r.Post("/api/networks/switch", h.HandleSwitch)
	r.Post("/api/networks/wallet", h.HandleWalletChain)
	r.Delete("/api/networks/wallet", h.HandleWalletDisconnect)
	r.Post("/api/networks/private", h.HandleCreatePrivate)
	r.Post("/api/networks/custom", h.HandleConfigureCustom)
	r.Delete("/api/networks/custom/{chain_id}", h.HandleRemoveCustom)
	r.Get("/api/events", h.HandleEvents)
}

// HandleView renders the selector of the requesting user.
//
// URL format: GET /api/networks?disabled=1,137&enabled=10
// The optional disabled and enabled query parameters narrow the configured
// chain filter. The action routes accept the same parameters, so a client
// acts under the filter it renders with.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	narrow, ok := requestFilters(w, r)
	if !ok {
		return
	}
	h.writeView(w, r, h.registry.Get(api.UserFromRequest(r)), http.StatusOK, narrow...)
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Get(api.UserFromRequest(r))
	if err := s.Open(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.writeView(w, r, s, http.StatusOK)
}

func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Get(api.UserFromRequest(r))
	s.Close()
	h.writeView(w, r, s, http.StatusOK)
}

// HandleSwitch switches to the chain picked by the user.
//
// Request body: {"chainId": 10}
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	narrow, ok := requestFilters(w, r)
	if !ok {
		return
	}
	req, ok := decodeChainRequest(w, r)
	if !ok {
		return
	}

	s := h.registry.Get(api.UserFromRequest(r))
	if err := s.Switch(r.Context(), req.ChainID, narrow...); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	h.writeView(w, r, s, http.StatusOK, narrow...)
}

// HandleWalletChain records the chain active in the user's wallet. The first
// report connects the wallet.
//
// Request body: {"chainId": 10}
func (h *Handler) HandleWalletChain(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChainRequest(w, r)
	if !ok {
		return
	}

	user := api.UserFromRequest(r)
	if err := h.registry.Session(user).ReportActiveChain(r.Context(), req.ChainID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	h.writeView(w, r, h.registry.Get(user), http.StatusOK)
}

func (h *Handler) HandleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromRequest(r)
	h.registry.Session(user).Disconnect()
	h.registry.Get(user).Close()
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreatePrivate provisions a private development network and switches
// the user to it.
//
// Response: 201 with the chain descriptor of the new network. The network is
// returned even when the wallet could not follow the switch.
func (h *Handler) HandleCreatePrivate(w http.ResponseWriter, r *http.Request) {
	narrow, ok := requestFilters(w, r)
	if !ok {
		return
	}
	s := h.registry.Get(api.UserFromRequest(r))

	chain, err := s.CreatePrivateNetwork(r.Context(), narrow...)
	if chain == nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if err != nil {
		h.log.Warn("Private network created without wallet switch", "err", err, "chainId", chain.ChainID.String())
	}
	writeJSON(w, http.StatusCreated, chain)
}

// HandleConfigureCustom adds or edits a network of the user's own.
//
// Request body: a chain descriptor, e.g.
// {"chainId": 31337, "name": "Local Anvil", "rpc": ["http://127.0.0.1:8545"]}
func (h *Handler) HandleConfigureCustom(w http.ResponseWriter, r *http.Request) {
	narrow, ok := requestFilters(w, r)
	if !ok {
		return
	}

	var req interfaces.Chain
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
		http.Error(w, fmt.Errorf("invalid request body: %w", err).Error(), http.StatusBadRequest)
		return
	}

	s := h.registry.Get(api.UserFromRequest(r))
	chain, err := s.ConfigureChain(r.Context(), req, narrow...)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, chain)
}

// HandleRemoveCustom removes a custom network of the user.
//
// URL format: DELETE /api/networks/custom/{chain_id}
func (h *Handler) HandleRemoveCustom(w http.ResponseWriter, r *http.Request) {
	narrow, ok := requestFilters(w, r)
	if !ok {
		return
	}
	id, err := interfaces.ParseChainID(r.PathValue("chain_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := h.registry.Get(api.UserFromRequest(r))
	if err := s.RemoveCustomChain(r.Context(), id, narrow...); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeView(w http.ResponseWriter, r *http.Request, s *selector.Selector, status int, narrow ...chains.Filter) {
	view, err := s.View(r.Context(), narrow...)
	if err != nil {
		http.Error(w, fmt.Errorf("could not render selector: %w", err).Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, view)
}

// requestFilters parses the optional disabled and enabled query parameters.
func requestFilters(w http.ResponseWriter, r *http.Request) ([]chains.Filter, bool) {
	query := r.URL.Query()
	if !query.Has("disabled") && !query.Has("enabled") {
		return nil, true
	}

	disabled, err := interfaces.ParseChainIDList(query.Get("disabled"))
	if err != nil {
		http.Error(w, fmt.Errorf("invalid disabled chains: %w", err).Error(), http.StatusBadRequest)
		return nil, false
	}
	enabled, err := interfaces.ParseChainIDList(query.Get("enabled"))
	if err != nil {
		http.Error(w, fmt.Errorf("invalid enabled chains: %w", err).Error(), http.StatusBadRequest)
		return nil, false
	}
	return []chains.Filter{{Disabled: disabled, Enabled: enabled}}, true
}

func decodeChainRequest(w http.ResponseWriter, r *http.Request) (*api.ChainRequest, bool) {
	var req api.ChainRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
		http.Error(w, fmt.Errorf("invalid request body: %w", err).Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrUnknownChain):
		return http.StatusNotFound
	case errors.Is(err, selector.ErrWalletNotConnected), errors.Is(err, selector.ErrSelectorDisabled):
		return http.StatusConflict
	case errors.Is(err, selector.ErrCustomNetworksLocked), errors.Is(err, selector.ErrChainFiltered):
		return http.StatusForbidden
	case errors.Is(err, selector.ErrInvalidChain):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
