package batches

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/devnet-dashboard-backend/api"
	"github.com/ruteri/devnet-dashboard-backend/events"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRevealer struct {
	mock.Mock
}

func (m *MockRevealer) Reveal(ctx context.Context, req interfaces.RevealRequest) error {
	return m.Called(ctx, req).Error(0)
}

func setup(t *testing.T) (chi.Router, *MockRevealer, <-chan interfaces.Event) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := events.NewHub(logger)
	notifications, cancel := hub.Subscribe("alice")
	t.Cleanup(cancel)

	revealer := new(MockRevealer)
	mux := chi.NewRouter()
	NewHandler(revealer, hub, logger).RegisterRoutes(mux)
	return mux, revealer, notifications
}

func post(mux http.Handler, target, body string) (*httptest.ResponseRecorder, api.RevealBatchResponse) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(api.UserHeader, "alice")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp api.RevealBatchResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleReveal_Success(t *testing.T) {
	mux, revealer, notifications := setup(t)
	revealer.On("Reveal", mock.Anything, interfaces.RevealRequest{BatchID: "b1", Password: "pw"}).Return(nil).Once()

	w, resp := post(mux, "/api/batches/b1/reveal", `{"password":"pw","name":"Mystery Box"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Reveal Password for Mystery Box", resp.Title)
	assert.False(t, resp.Open)
	revealer.AssertExpectations(t)

	event := <-notifications
	require.NotNil(t, event.Notification)
	assert.Equal(t, "Batch revealed successfully", event.Notification.Title)
	assert.Equal(t, interfaces.NotificationSuccess, event.Notification.Status)
}

func TestHandleReveal_Failure(t *testing.T) {
	mux, revealer, notifications := setup(t)
	revealer.On("Reveal", mock.Anything, mock.Anything).Return(errors.New("execution reverted")).Once()

	w, resp := post(mux, "/api/batches/b1/reveal", `{"password":"wrong","name":"Mystery Box"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, resp.Open)
	assert.Contains(t, resp.Error, "execution reverted")

	event := <-notifications
	require.NotNil(t, event.Notification)
	assert.Equal(t, "Error revealing batch upload", event.Notification.Title)
	assert.Equal(t, interfaces.NotificationError, event.Notification.Status)
}

func TestHandleReveal_EmptyPassword(t *testing.T) {
	mux, revealer, notifications := setup(t)

	w, resp := post(mux, "/api/batches/b1/reveal", `{"password":"","name":"Mystery Box"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password is required", resp.FieldError)
	assert.True(t, resp.Open)
	revealer.AssertNotCalled(t, "Reveal", mock.Anything, mock.Anything)

	select {
	case event := <-notifications:
		t.Fatalf("unexpected event %+v", event)
	default:
	}

	w, _ = post(mux, "/api/batches/b1/reveal", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
