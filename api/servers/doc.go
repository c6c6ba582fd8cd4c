/*
Package servers implements the HTTP server of the devnet dashboard backend.

The Server mounts the routes of every API handler passed to New on a single
chi router, wraps them with request logging and, when configured, request
metrics, and adds the health and drain endpoints:

  - /livez: always reports alive
  - /readyz: reports ready unless the server is draining
  - /drain: marks the server not ready so load balancers stop routing to it
  - /undrain: marks the server ready again

When EnablePprof is set, the pprof API is mounted under /debug. When a
MetricsAddr is configured, Prometheus metrics are served on /metrics of a
separate listener.

Usage:

	srv, err := servers.New(cfg, metrics.New("dashboard"), stealthtestHandler, networksHandler)
	if err != nil {
		return err
	}
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package servers
