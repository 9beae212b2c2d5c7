// Package evmabi holds the ABIs of the storage contracts.
package evmabi

import (
	_ "embed"
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func MustUnmarshalABI(artifactJSON []byte) *abi.ABI {
	var artifact struct {
		ABI *abi.ABI
	}
	if err := json.Unmarshal(artifactJSON, &artifact); err != nil {
		panic(err)
	}
	return artifact.ABI
}

// withAccessControl returns a copy of contract that also exposes the
// AccessControl role methods.
func withAccessControl(contract *abi.ABI) *abi.ABI {
	merged := *contract
	merged.Methods = make(map[string]abi.Method, len(contract.Methods)+len(AccessControl.Methods))
	for name, m := range AccessControl.Methods {
		merged.Methods[name] = m
	}
	for name, m := range contract.Methods {
		merged.Methods[name] = m
	}
	return &merged
}

//go:embed artifacts/AccessControl.json
var artifactAccessControlJSON []byte
var AccessControl = MustUnmarshalABI(artifactAccessControlJSON)

//go:embed artifacts/FixedPriceFlow.json
var artifactFlowJSON []byte
var Flow = withAccessControl(MustUnmarshalABI(artifactFlowJSON))

//go:embed artifacts/PoraMine.json
var artifactPoraMineJSON []byte
var PoraMine = withAccessControl(MustUnmarshalABI(artifactPoraMineJSON))

//go:embed artifacts/ChunkLinearReward.json
var artifactChunkLinearRewardJSON []byte
var ChunkLinearReward = MustUnmarshalABI(artifactChunkLinearRewardJSON)

//go:embed artifacts/UpgradeableBeacon.json
var artifactUpgradeableBeaconJSON []byte
var UpgradeableBeacon = MustUnmarshalABI(artifactUpgradeableBeaconJSON)
