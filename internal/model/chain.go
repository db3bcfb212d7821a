package model

import "fmt"

// Chain is a blockchain network a metric row pertains to.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainBSC      Chain = "bsc"
	ChainAvax     Chain = "avax"
	ChainArbitrum Chain = "arbitrum"
	ChainPolygon  Chain = "polygon"
	ChainMonad    Chain = "monad"
)

// ChainGroup is the chain filter accepted by the read API. The EVM group fans
// out to the individual EVM chains below.
type ChainGroup string

const (
	GroupSolana ChainGroup = "solana"
	GroupEVM    ChainGroup = "evm"
	GroupMonad  ChainGroup = "monad"
)

// EVMChains is the chain set summed into the synthetic "evm" per-date record.
var EVMChains = []Chain{ChainEthereum, ChainBase, ChainBSC, ChainAvax, ChainArbitrum}

// DataScope marks a row as chain-verifiable public data or the protocol's own
// private reporting.
type DataScope string

const (
	ScopePublic  DataScope = "public"
	ScopePrivate DataScope = "private"
)

// scopePolicy maps each chain to its allowed scopes, default first.
var scopePolicy = map[Chain][]DataScope{
	ChainSolana:   {ScopePrivate},
	ChainMonad:    {ScopePrivate},
	ChainEthereum: {ScopePublic},
	ChainBase:     {ScopePublic},
	ChainBSC:      {ScopePublic},
	ChainAvax:     {ScopePublic},
	ChainArbitrum: {ScopePublic},
	ChainPolygon:  {ScopePublic},
}

// ParseChain validates a chain identifier.
func ParseChain(s string) (Chain, error) {
	c := Chain(s)
	if _, ok := scopePolicy[c]; !ok {
		return "", fmt.Errorf("unknown chain %q", s)
	}
	return c, nil
}

// ParseChainGroup validates a chain-group filter value.
func ParseChainGroup(s string) (ChainGroup, error) {
	switch g := ChainGroup(s); g {
	case GroupSolana, GroupEVM, GroupMonad:
		return g, nil
	}
	return "", fmt.Errorf("unknown chain group %q", s)
}

// ParseScope validates a data-scope value.
func ParseScope(s string) (DataScope, error) {
	switch sc := DataScope(s); sc {
	case ScopePublic, ScopePrivate:
		return sc, nil
	}
	return "", fmt.Errorf("unknown data scope %q", s)
}

// DefaultScope returns the default data scope for a chain.
func DefaultScope(c Chain) DataScope {
	return scopePolicy[c][0]
}

// ValidateScope rejects chain/scope combinations outside the policy table.
// Mixing is an error, never a silent coercion.
func ValidateScope(c Chain, s DataScope) error {
	allowed, ok := scopePolicy[c]
	if !ok {
		return fmt.Errorf("unknown chain %q", c)
	}
	for _, a := range allowed {
		if a == s {
			return nil
		}
	}
	return fmt.Errorf("data scope %q not allowed on chain %q", s, c)
}

// Chains returns the individual chains a group expands to.
func (g ChainGroup) Chains() []Chain {
	switch g {
	case GroupEVM:
		return EVMChains
	case GroupSolana:
		return []Chain{ChainSolana}
	case GroupMonad:
		return []Chain{ChainMonad}
	}
	return nil
}
