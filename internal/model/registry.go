package model

import "strings"

// Category classifies a protocol's product surface. The volume-display policy
// is keyed on it: mobile apps never use the projected signal.
type Category string

const (
	CategoryTradingBot Category = "trading-bot"
	CategoryWebDEX     Category = "web-dex"
	CategoryMobileApp  Category = "mobile-app"
)

// StatQuery maps one analytics-provider query to the chain its rows belong to.
type StatQuery struct {
	QueryID int
	Chain   Chain
}

// Protocol is one static registry entry: the chains a protocol reports on and
// the provider query IDs its daily data comes from.
type Protocol struct {
	Name          string
	Category      Category
	Chains        []Chain
	StatQueries   []StatQuery
	TraderQueryID int
}

// registry is the static protocol configuration. Maintained by hand; the core
// never writes it.
var registry = map[string]Protocol{
	"photon": {
		Name: "photon", Category: CategoryWebDEX,
		Chains:        []Chain{ChainSolana},
		StatQueries:   []StatQuery{{3622411, ChainSolana}},
		TraderQueryID: 3622490,
	},
	"bullx": {
		Name: "bullx", Category: CategoryWebDEX,
		Chains:        []Chain{ChainSolana},
		StatQueries:   []StatQuery{{3823111, ChainSolana}},
		TraderQueryID: 3823190,
	},
	"gmgn": {
		Name: "gmgn", Category: CategoryWebDEX,
		Chains:      []Chain{ChainSolana},
		StatQueries: []StatQuery{{4011201, ChainSolana}},
	},
	"trojan": {
		Name: "trojan", Category: CategoryTradingBot,
		Chains:        []Chain{ChainSolana},
		StatQueries:   []StatQuery{{3477012, ChainSolana}},
		TraderQueryID: 3477090,
	},
	"bonkbot": {
		Name: "bonkbot", Category: CategoryTradingBot,
		Chains:      []Chain{ChainSolana},
		StatQueries: []StatQuery{{3059511, ChainSolana}},
	},
	"maestro": {
		Name: "maestro", Category: CategoryTradingBot,
		Chains: EVMChains,
		StatQueries: []StatQuery{
			{2518301, ChainEthereum},
			{2518302, ChainBase},
			{2518303, ChainBSC},
			{2518304, ChainAvax},
			{2518305, ChainArbitrum},
		},
	},
	"bananagun": {
		Name: "bananagun", Category: CategoryTradingBot,
		Chains: []Chain{ChainEthereum, ChainSolana, ChainBase},
		StatQueries: []StatQuery{
			{2847101, ChainEthereum},
			{2847102, ChainSolana},
			{2847103, ChainBase},
		},
	},
	"moonshot": {
		Name: "moonshot", Category: CategoryMobileApp,
		Chains:      []Chain{ChainSolana},
		StatQueries: []StatQuery{{3899001, ChainSolana}},
	},
	"kuru": {
		Name: "kuru", Category: CategoryWebDEX,
		Chains:      []Chain{ChainMonad},
		StatQueries: []StatQuery{{4412001, ChainMonad}},
	},
}

// NormalizeProtocol lowercases a protocol identifier.
func NormalizeProtocol(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LookupProtocol returns the registry entry for a protocol identifier.
func LookupProtocol(name string) (Protocol, bool) {
	p, ok := registry[NormalizeProtocol(name)]
	return p, ok
}

// AllProtocols returns every registered protocol name.
func AllProtocols() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// PrimaryChain returns the protocol's first configured chain.
func (p Protocol) PrimaryChain() Chain {
	if len(p.Chains) == 0 {
		return ChainSolana
	}
	return p.Chains[0]
}
