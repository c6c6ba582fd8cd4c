// Package stealthtest implements the private network provisioning proxy.
//
// The proxy accepts POST /api/stealthtest, asks the upstream environments API
// for a new ephemeral network with a random chain id and relays the upstream
// "data" member to the caller:
//
//	201 {"success":true,"data":{...}}
//	400 {"error":"invalid method"}
//	500 {"error":"internal server error"}
//
// The upstream API key is held by the server only. It is read from the
// STEALTHTEST_API_KEY environment variable and its absence is a startup
// failure, never a per-request error.
//
// Chain ids are drawn uniformly from [0, MaxChainID) without collision
// avoidance; a collision with an existing network is left to the upstream.
//
// Client is the counterpart used by the network selector to request a
// private network through the proxy.
package stealthtest
