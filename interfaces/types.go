package interfaces

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownChain is returned when a chain id is not part of the supported chains.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrInvalidChainID is returned when a chain id cannot be parsed.
	ErrInvalidChainID = errors.New("invalid chain id")
)

// ChainID identifies a blockchain network.
type ChainID int64

// ParseChainID parses a decimal chain id. Negative values are rejected.
func ParseChainID(s string) (ChainID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainID, s)
	}
	return ChainID(v), nil
}

// ParseChainIDList parses a comma separated list of chain ids. Empty input yields nil.
func ParseChainIDList(s string) ([]ChainID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]ChainID, 0, len(parts))
	for _, part := range parts {
		id, err := ParseChainID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// String returns the decimal representation of the chain id.
func (id ChainID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Icon references an image used to render a chain.
type Icon struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// NativeCurrency describes the gas token of a chain.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Chain is a chain descriptor. Catalog chains are loaded once at startup,
// custom chains are created by the provisioning flow and persisted per user.
type Chain struct {
	ChainID        ChainID        `json:"chainId"`
	Name           string         `json:"name"`
	Title          string         `json:"title,omitempty"`
	Chain          string         `json:"chain"`
	ShortName      string         `json:"shortName"`
	Slug           string         `json:"slug"`
	Icon           *Icon          `json:"icon,omitempty"`
	RPC            []string       `json:"rpc"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
	Testnet        bool           `json:"testnet"`
	IsCustom       bool           `json:"isCustom,omitempty"`
}

// FirstRPC returns the first RPC endpoint or an empty string.
func (c *Chain) FirstRPC() string {
	if len(c.RPC) == 0 {
		return ""
	}
	return c.RPC[0]
}

// ChainsByID indexes chains by their id. Later entries win.
func ChainsByID(chains []Chain) map[ChainID]Chain {
	index := make(map[ChainID]Chain, len(chains))
	for _, c := range chains {
		index[c.ChainID] = c
	}
	return index
}

// BatchMetadata is the placeholder metadata shown before a batch is revealed.
type BatchMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// BatchToReveal identifies a previously uploaded batch of deferred-reveal metadata.
type BatchToReveal struct {
	BatchID             string        `json:"batchId"`
	PlaceholderMetadata BatchMetadata `json:"placeholderMetadata"`
}

// RevealRequest carries the reveal submission for one batch.
type RevealRequest struct {
	BatchID  string `json:"batchId"`
	Password string `json:"password"`
}
