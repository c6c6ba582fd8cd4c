package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct {
	notified int
	switched int
}

func (n *nopNotifier) Notify(context.Context, string, interfaces.Notification) { n.notified++ }
func (n *nopNotifier) ChainSwitched(context.Context, string, interfaces.Chain) { n.switched++ }

func TestNotifier_CountsAndForwards(t *testing.T) {
	m := New("dashboard")
	next := &nopNotifier{}
	notifier := m.Notifier(next)

	ctx := context.Background()
	notifier.Notify(ctx, "alice", interfaces.Notification{Title: "Batch revealed successfully", Status: interfaces.NotificationSuccess})
	notifier.ChainSwitched(ctx, "alice", interfaces.Chain{ChainID: 10})
	notifier.ChainSwitched(ctx, "bob", interfaces.Chain{ChainID: 4242, IsCustom: true})
	notifier.ChainSwitched(ctx, "bob", interfaces.Chain{ChainID: 777001, IsCustom: true})

	assert.Equal(t, 1, next.notified)
	assert.Equal(t, 3, next.switched)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("Batch revealed successfully", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chainSwitches.WithLabelValues("10", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chainSwitches.WithLabelValues("custom", "true")))
	// Provisioned chain ids never become series of their own.
	assert.Equal(t, 2, testutil.CollectAndCount(m.chainSwitches))
	assert.InDelta(t, 2, float64(m.DistinctUsers()), 0.5)
}

func TestMiddleware_CountsRoutePattern(t *testing.T) {
	m := New("dashboard")

	mux := chi.NewRouter()
	mux.Use(m.Middleware)
	mux.Delete("/api/networks/custom/{chain_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/networks/custom/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodDelete, "/api/networks/custom/{chain_id}", "204")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dashboard_http_requests_total")
	assert.Contains(t, string(body), "dashboard_distinct_users")
}
