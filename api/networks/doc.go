// Package networks serves the network selector of the dashboard and the
// websocket stream carrying notifications and chain switch events.
package networks
