// Package metrics exposes Prometheus metrics of the dashboard on a dedicated
// listener.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	chainSwitches *prometheus.CounterVec

	usersMu sync.Mutex
	users   *hyperloglog.Sketch
}

// New registers the dashboard collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications emitted to users by title and status.",
		}, []string{"title", "status"}),
		chainSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_switches_total",
			Help:      "Chain switches by catalog chain id, or \"custom\" for user chains.",
		}, []string{"chain_id", "custom"}),
		users: hyperloglog.New14(),
	}

	usersGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "distinct_users",
		Help:      "Estimated number of distinct users seen since start.",
	}, func() float64 {
		return float64(m.DistinctUsers())
	})

	m.registry.MustRegister(
		m.requests,
		m.notifications,
		m.chainSwitches,
		usersGauge,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

// ObserveUser adds user to the distinct users estimate.
func (m *Metrics) ObserveUser(user string) {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()
	m.users.Insert([]byte(user))
}

func (m *Metrics) DistinctUsers() uint64 {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()
	return m.users.Estimate()
}

// Notifier wraps next, counting every notification and chain switch.
func (m *Metrics) Notifier(next interfaces.Notifier) interfaces.Notifier {
	return &instrumentedNotifier{next: next, metrics: m}
}

type instrumentedNotifier struct {
	next    interfaces.Notifier
	metrics *Metrics
}

func (n *instrumentedNotifier) Notify(ctx context.Context, user string, notification interfaces.Notification) {
	n.metrics.ObserveUser(user)
	n.metrics.notifications.WithLabelValues(notification.Title, string(notification.Status)).Inc()
	n.next.Notify(ctx, user, notification)
}

func (n *instrumentedNotifier) ChainSwitched(ctx context.Context, user string, chain interfaces.Chain) {
	n.metrics.ObserveUser(user)
	n.metrics.chainSwitches.WithLabelValues(chainLabel(chain), strconv.FormatBool(chain.IsCustom)).Inc()
	n.next.ChainSwitched(ctx, user, chain)
}

// customChainLabel replaces the id of user chains, which are unbounded.
const customChainLabel = "custom"

func chainLabel(chain interfaces.Chain) string {
	if chain.IsCustom {
		return customChainLabel
	}
	return chain.ChainID.String()
}

// MetricsServer serves Handler on its own address.
type MetricsServer struct {
	srv *http.Server
}

func NewServer(m *Metrics, listenAddr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
