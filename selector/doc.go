// Package selector implements the network selector of the dashboard.
//
// A Selector owns the picker state of one user (open or closed), composes the
// chain catalog with the user's custom and recently used chains, reacts to
// chain changes reported by the wallet and provisions private development
// networks through an interfaces.Provisioner.
package selector
