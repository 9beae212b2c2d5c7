package evmabi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleMethodsMerged(t *testing.T) {
	for name, contract := range map[string]struct {
		methods  map[string]bool
		operator string
	}{
		"flow": {methods: methodSet(Flow.Methods), operator: "PAUSER_ROLE"},
		"mine": {methods: methodSet(PoraMine.Methods), operator: "PARAMS_ADMIN_ROLE"},
	} {
		for _, m := range []string{"DEFAULT_ADMIN_ROLE", "hasRole", "grantRole", "revokeRole", contract.operator} {
			require.True(t, contract.methods[m], "%s lacks %s", name, m)
		}
	}
	// Merging must not leak into the shared AccessControl ABI.
	_, ok := AccessControl.Methods["PAUSER_ROLE"]
	require.False(t, ok)
}

func TestMethodSignatures(t *testing.T) {
	require.Equal(t, "setParams(uint256,uint256,address)", Flow.Methods["setParams"].Sig)
	require.Equal(t, "makeContextFixedTimes(uint256)", Flow.Methods["makeContextFixedTimes"].Sig)
	require.Equal(t, "upgradeTo(address)", UpgradeableBeacon.Methods["upgradeTo"].Sig)
	require.True(t, ChunkLinearReward.Methods["donate"].IsPayable())
	require.Len(t, Flow.Methods["getContext"].Outputs[0].Type.TupleElems, 6)
}

func methodSet[M any](methods map[string]M) map[string]bool {
	out := map[string]bool{}
	for name := range methods {
		out[name] = true
	}
	return out
}
