package contracts

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is the subset of a hardhat build artifact needed to deploy a
// contract.
type Artifact struct {
	ContractName     string        `json:"contractName"`
	ABI              *abi.ABI      `json:"abi"`
	Bytecode         hexutil.Bytes `json:"bytecode"`
	DeployedBytecode hexutil.Bytes `json:"deployedBytecode"`
}

// ParseArtifact decodes a hardhat artifact.
func ParseArtifact(raw []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if len(a.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has no bytecode", a.ContractName)
	}
	if a.ABI == nil {
		a.ABI = &abi.ABI{}
	}
	return &a, nil
}

// LoadArtifact reads a hardhat artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseArtifact(raw)
}

// DeployData returns the creation code with the packed constructor
// arguments appended.
func (a *Artifact) DeployData(args ...interface{}) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s constructor arguments: %w", a.ContractName, err)
	}
	return append(append([]byte{}, a.Bytecode...), packed...), nil
}

// ParseConstructorArgs converts command line arguments to the Go values the
// artifact's constructor expects. Integers may be decimal or 0x-hex; bytes
// are 0x-hex.
func ParseConstructorArgs(a *Artifact, raw []string) ([]interface{}, error) {
	inputs := a.ABI.Constructor.Inputs
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d", a.ContractName, len(inputs), len(raw))
	}
	args := make([]interface{}, len(raw))
	for i, input := range inputs {
		v, err := parseArg(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s %s): %w", i, input.Type.String(), input.Name, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		return ParseAddress(s)
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("'%s' is not an integer", s)
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value for unsigned type")
		}
		if t.Size > 64 {
			return n, nil
		}
		if t.T == abi.UintTy {
			if !n.IsUint64() || n.BitLen() > t.Size {
				return nil, fmt.Errorf("%s overflows %s", s, t.String())
			}
			return reflect.ValueOf(n.Uint64()).Convert(t.GetType()).Interface(), nil
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s overflows %s", s, t.String())
		}
		return reflect.ValueOf(n.Int64()).Convert(t.GetType()).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", t.String())
	}
}
