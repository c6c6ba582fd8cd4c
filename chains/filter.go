package chains

import (
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// Filter restricts the chains offered by a network picker. Disabled takes
// precedence over Enabled when both are non-empty.
type Filter struct {
	Disabled []interfaces.ChainID
	Enabled  []interfaces.ChainID
}

// Locked reports whether an allow-list is in force. Under an allow-list the
// picker hides popular chains and custom network creation.
func (f Filter) Locked() bool {
	return len(f.Enabled) > 0
}

// Apply returns the chains allowed by the filter, preserving order.
func (f Filter) Apply(chains []interfaces.Chain) []interfaces.Chain {
	var keep func(interfaces.ChainID) bool

	switch {
	case len(f.Disabled) > 0:
		disabled := idSet(f.Disabled)
		keep = func(id interfaces.ChainID) bool {
			_, found := disabled[id]
			return !found
		}
	case len(f.Enabled) > 0:
		enabled := idSet(f.Enabled)
		keep = func(id interfaces.ChainID) bool {
			_, found := enabled[id]
			return found
		}
	default:
		return chains
	}

	filtered := make([]interfaces.Chain, 0, len(chains))
	for _, chain := range chains {
		if keep(chain.ChainID) {
			filtered = append(filtered, chain)
		}
	}
	return filtered
}

// Allows reports whether the filter keeps the chain with the given id.
func (f Filter) Allows(id interfaces.ChainID) bool {
	return len(f.Apply([]interfaces.Chain{{ChainID: id}})) == 1
}

// Filters narrows a picker by several filters at once. A chain is offered
// only when every filter keeps it.
type Filters []Filter

func (fs Filters) Locked() bool {
	for _, f := range fs {
		if f.Locked() {
			return true
		}
	}
	return false
}

func (fs Filters) Apply(chains []interfaces.Chain) []interfaces.Chain {
	for _, f := range fs {
		chains = f.Apply(chains)
	}
	return chains
}

func (fs Filters) Allows(id interfaces.ChainID) bool {
	for _, f := range fs {
		if !f.Allows(id) {
			return false
		}
	}
	return true
}

func idSet(ids []interfaces.ChainID) map[interfaces.ChainID]struct{} {
	set := make(map[interfaces.ChainID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
