package chains

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

//go:embed catalog.json
var defaultCatalog []byte

type catalogFile struct {
	Popular []interfaces.ChainID `json:"popular"`
	Chains  []interfaces.Chain   `json:"chains"`
}

// Catalog is the static list of known chains. It is immutable after loading.
type Catalog struct {
	chains  []interfaces.Chain
	popular []interfaces.ChainID
	byID    map[interfaces.ChainID]interfaces.Chain
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return catalog
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a catalog and validates that chain ids are unique and
// that popular chains are part of the catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var parsed catalogFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse catalog: %w", err)
	}

	byID := make(map[interfaces.ChainID]interfaces.Chain, len(parsed.Chains))
	for i := range parsed.Chains {
		chain := parsed.Chains[i]
		if chain.Name == "" {
			return nil, fmt.Errorf("catalog chain %d has no name", chain.ChainID)
		}
		if _, exists := byID[chain.ChainID]; exists {
			return nil, fmt.Errorf("duplicate chain id %d in catalog", chain.ChainID)
		}
		chain.IsCustom = false
		parsed.Chains[i] = chain
		byID[chain.ChainID] = chain
	}

	for _, id := range parsed.Popular {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("popular chain %d is not in the catalog", id)
		}
	}

	return &Catalog{
		chains:  parsed.Chains,
		popular: parsed.Popular,
		byID:    byID,
	}, nil
}

// Chains returns a copy of all catalog chains in catalog order.
func (c *Catalog) Chains() []interfaces.Chain {
	return slices.Clone(c.chains)
}

// Popular returns the popular chains in their configured order.
func (c *Catalog) Popular() []interfaces.Chain {
	popular := make([]interfaces.Chain, 0, len(c.popular))
	for _, id := range c.popular {
		popular = append(popular, c.byID[id])
	}
	return popular
}

// Get returns the catalog chain with the given id.
func (c *Catalog) Get(id interfaces.ChainID) (interfaces.Chain, bool) {
	chain, ok := c.byID[id]
	return chain, ok
}

// Merge returns the catalog followed by custom chains. A custom chain with the
// id of a catalog chain replaces the catalog entry in place.
func (c *Catalog) Merge(custom []interfaces.Chain) []interfaces.Chain {
	customByID := interfaces.ChainsByID(custom)

	merged := make([]interfaces.Chain, 0, len(c.chains)+len(custom))
	for _, chain := range c.chains {
		if override, ok := customByID[chain.ChainID]; ok {
			merged = append(merged, override)
			delete(customByID, chain.ChainID)
			continue
		}
		merged = append(merged, chain)
	}
	for _, chain := range custom {
		if _, pending := customByID[chain.ChainID]; pending {
			merged = append(merged, chain)
			delete(customByID, chain.ChainID)
		}
	}
	return merged
}
