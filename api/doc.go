/*
Package api provides the HTTP surface of the devnet dashboard backend.

This package is organized into the following subpackages:

1. environments - Client of the upstream environment provisioning API
2. stealthtest - Provisioning proxy handler and its client
3. networks - Network selector routes and the dashboard event stream
4. batches - Batch reveal routes
5. servers - HTTP server configuration and lifecycle management

# Users

Requests act for the user named by the X-Dashboard-User header, or for the
"anonymous" user when the header is absent. Custom chains, recently used
chains, wallet state and notifications are all kept per user.

# Endpoints

	POST   /api/stealthtest                 provision a private development network
	GET    /api/networks                    render the network selector
	POST   /api/networks/open               open the network picker
	POST   /api/networks/close              close the network picker
	POST   /api/networks/switch             switch to a chain picked by the user
	POST   /api/networks/wallet             report the chain active in the wallet
	DELETE /api/networks/wallet             disconnect the wallet
	POST   /api/networks/private            create a private development network
	POST   /api/networks/custom             add or edit a network of the user's own
	DELETE /api/networks/custom/{chain_id}  remove a custom network
	GET    /api/events                      websocket stream of notifications
	POST   /api/batches/{batch_id}/reveal   reveal a batch of uploaded metadata

The selector routes accept optional disabled and enabled query parameters
(comma separated chain ids) that narrow the configured chain filter.

The server additionally exposes /livez, /readyz, /drain and /undrain, and the
pprof API under /debug when enabled.
*/
package api
