package stealthtest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClient_CreatePrivateNetwork(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	creator := new(MockCreator)
	creator.On("Create", mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"status":"READY","chainId":77,"name":"StealthTest","networks":{"eth":{"url":"https://rpc.example/77"}}}`), nil)

	server := httptest.NewServer(newTestRouter(NewHandlerWithCreator(creator, "", logger)))
	defer server.Close()

	client := &Client{ServerAddr: server.URL, HTTPClient: server.Client()}
	result, err := client.CreatePrivateNetwork(context.Background())
	require.NoError(t, err)

	assert.Equal(t, interfaces.ChainID(77), result.ChainID)
	assert.Equal(t, "StealthTest", result.Name)
	require.NotNil(t, result.Networks.Eth)
	assert.Equal(t, "https://rpc.example/77", result.Networks.Eth.URL)
}

func TestClient_CreatePrivateNetworkFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			},
		},
		{
			name: "missing data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusCreated, map[string]any{"success": true})
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte("<html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := &Client{ServerAddr: server.URL}
			_, err := client.CreatePrivateNetwork(context.Background())
			assert.Error(t, err)
		})
	}
}
