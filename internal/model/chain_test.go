package model

import "testing"

func TestDefaultScopes(t *testing.T) {
	tests := []struct {
		chain Chain
		want  DataScope
	}{
		{ChainSolana, ScopePrivate},
		{ChainMonad, ScopePrivate},
		{ChainEthereum, ScopePublic},
		{ChainBase, ScopePublic},
		{ChainArbitrum, ScopePublic},
	}
	for _, tt := range tests {
		if got := DefaultScope(tt.chain); got != tt.want {
			t.Errorf("DefaultScope(%s) = %s, want %s", tt.chain, got, tt.want)
		}
	}
}

func TestValidateScopeRejectsMixing(t *testing.T) {
	if err := ValidateScope(ChainSolana, ScopePrivate); err != nil {
		t.Errorf("Expected solana/private allowed, got %v", err)
	}
	if err := ValidateScope(ChainSolana, ScopePublic); err == nil {
		t.Error("Expected solana/public rejected")
	}
	if err := ValidateScope(ChainEthereum, ScopePrivate); err == nil {
		t.Error("Expected ethereum/private rejected")
	}
}

func TestParseChainGroup(t *testing.T) {
	for _, valid := range []string{"solana", "evm", "monad"} {
		if _, err := ParseChainGroup(valid); err != nil {
			t.Errorf("Expected %q to parse, got %v", valid, err)
		}
	}
	if _, err := ParseChainGroup("cosmos"); err == nil {
		t.Error("Expected unknown group rejected")
	}
}

func TestEVMGroupExcludesPolygon(t *testing.T) {
	for _, c := range GroupEVM.Chains() {
		if c == ChainPolygon {
			t.Error("Polygon must not be in the summed EVM set")
		}
	}
	if len(GroupEVM.Chains()) != 5 {
		t.Errorf("Expected 5 EVM chains, got %d", len(GroupEVM.Chains()))
	}
}

func TestNormalizeProtocol(t *testing.T) {
	if NormalizeProtocol("  Photon ") != "photon" {
		t.Errorf("Expected lowercase trimmed name, got %q", NormalizeProtocol("  Photon "))
	}
}
