// Package chains holds the chain catalog and the user-scoped chain stores.
//
// The Catalog is loaded once at startup, either from the embedded default or
// from a JSON file with the same layout. ConfiguredChains keeps the chains a
// user provisioned (or otherwise modified) and RecentlyUsed keeps the ordered
// list of chains a user switched to. Both stores persist through an
// interfaces.StateBackend and are safe for concurrent use.
//
// Filter applies the disabled-list or allow-list of a network picker to any
// list of chains.
package chains
