package core

// Derives the EVM storage slot a query resolves to, recording each
// derivation step for audit and a layout commitment binding the whole walk
// (§4.10).

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// QueryComponentKind tags one parsed element of a storage query.
type QueryComponentKind int

const (
	ComponentVariable QueryComponentKind = iota
	ComponentKey
	ComponentFieldAccess
)

// QueryComponent is one parsed element of a storage query path, e.g.
// `balances[0xabc...].amount` parses to Variable("balances"),
// Key("0xabc..."), FieldAccess("amount").
type QueryComponent struct {
	Kind  QueryComponentKind
	Name  string // Variable, FieldAccess
	Value string // Key: the raw key value, type-tagged by KeyType
	KeyType string // Key: "address" | "uint256" | "string"
}

// SlotLayout describes where a named contract variable lives in storage:
// its base slot and, for Struct fields, the field's offset from that slot.
type SlotLayout struct {
	Variable    string
	BaseSlot    uint64
	IsMapping   bool
	IsArray     bool
	FieldOffset map[string]uint64 // field name -> slot offset, for Struct
}

// ContractABI maps variable names to their slot layout, the minimal subset
// of an ABI this pipeline needs.
type ContractABI struct {
	Variables map[string]SlotLayout
}

// DerivationStep is one recorded step of a storage key derivation walk
// (§4.10): combine-with-hashed-key (Mapping), combine-with-index (Array),
// or add-field-offset (Struct).
type DerivationStep struct {
	Kind        string // "mapping" | "array" | "struct"
	Inputs      []string
	Output      string
	Description string
}

// ResolvedKey is the result of walking a query against a contract's ABI:
// the final 32-byte storage slot, every step taken to get there, and a
// layout commitment over the whole walk.
type ResolvedKey struct {
	Slot       common.Hash
	Steps      []DerivationStep
	Commitment ContentHash
}

// ResolveStorageKey walks components against abi starting from the named
// root variable's base slot, producing the final slot and the steps taken.
func ResolveStorageKey(contract common.Address, queryText string, abi ContractABI, components []QueryComponent) (ResolvedKey, error) {
	if len(components) == 0 {
		return ResolvedKey{}, fmt.Errorf("%w: empty storage query", ErrUnsupportedType)
	}
	root := components[0]
	if root.Kind != ComponentVariable {
		return ResolvedKey{}, fmt.Errorf("%w: storage query must start with a variable", ErrUnsupportedType)
	}
	layout, ok := abi.Variables[root.Name]
	if !ok {
		return ResolvedKey{}, fmt.Errorf("%w: %s", ErrUnknownContract, root.Name)
	}

	base := uint256.NewInt(layout.BaseSlot).Bytes32()
	current := common.BytesToHash(base[:])
	var steps []DerivationStep

	for _, comp := range components[1:] {
		switch comp.Kind {
		case ComponentKey:
			keyBytes, err := encodeKey(comp.KeyType, comp.Value)
			if err != nil {
				return ResolvedKey{}, err
			}
			next := mappingSlot(keyBytes, current)
			steps = append(steps, DerivationStep{
				Kind:        "mapping",
				Inputs:      []string{comp.Value, current.Hex()},
				Output:      next.Hex(),
				Description: fmt.Sprintf("keccak256(key(%s:%s) || base(%s))", comp.KeyType, comp.Value, current.Hex()),
			})
			current = next
		case ComponentFieldAccess:
			offset, ok := layout.FieldOffset[comp.Name]
			if !ok {
				return ResolvedKey{}, fmt.Errorf("%w: field %s", ErrUnknownContract, comp.Name)
			}
			next := addOffset(current, offset)
			steps = append(steps, DerivationStep{
				Kind:        "struct",
				Inputs:      []string{current.Hex(), fmt.Sprintf("%d", offset)},
				Output:      next.Hex(),
				Description: fmt.Sprintf("base(%s) + field_offset(%s)=%d", current.Hex(), comp.Name, offset),
			})
			current = next
		default:
			return ResolvedKey{}, fmt.Errorf("%w: unrecognised query component", ErrUnsupportedType)
		}
	}

	commitment := layoutCommitment(contract, queryText, components, steps)
	return ResolvedKey{Slot: current, Steps: steps, Commitment: commitment}, nil
}

// ResolveArrayIndex derives the storage slot of element index within a
// dynamic array whose length slot is base (§4.10's Array rule): combine
// current base with the element index via keccak256(base) + index.
func ResolveArrayIndex(base common.Hash, index uint64) (common.Hash, DerivationStep) {
	dataStart := common.BytesToHash(crypto256(base.Bytes()))
	next := addOffset(dataStart, index)
	step := DerivationStep{
		Kind:        "array",
		Inputs:      []string{base.Hex(), fmt.Sprintf("%d", index)},
		Output:      next.Hex(),
		Description: fmt.Sprintf("keccak256(base(%s)) + index(%d)", base.Hex(), index),
	}
	return next, step
}

func mappingSlot(keyBytes []byte, base common.Hash) common.Hash {
	buf := make([]byte, 0, len(keyBytes)+32)
	buf = append(buf, keyBytes...)
	buf = append(buf, base.Bytes()...)
	return common.BytesToHash(crypto256(buf))
}

func addOffset(base common.Hash, offset uint64) common.Hash {
	n := new(uint256.Int).SetBytes(base.Bytes())
	n.AddUint64(n, offset)
	out := n.Bytes32()
	return common.BytesToHash(out[:])
}

// encodeKey parses a mapping key per its declared EVM type: address and
// uint256 keys are left-padded to 32 bytes; string keys are used as their
// raw bytes, unpadded.
func encodeKey(keyType, value string) ([]byte, error) {
	switch keyType {
	case "address":
		if len(value) < 2 || !common.IsHexAddress(value) {
			return nil, fmt.Errorf("%w: invalid address key %q", ErrUnsupportedType, value)
		}
		addr := common.HexToAddress(value)
		padded := make([]byte, 32)
		copy(padded[12:], addr.Bytes())
		return padded, nil
	case "uint256":
		base := 10
		if strings.HasPrefix(value, "0x") {
			base = 16
			value = value[2:]
		}
		big, ok := new(big.Int).SetString(value, base)
		if !ok {
			return nil, fmt.Errorf("%w: invalid uint256 key %q", ErrUnsupportedType, value)
		}
		n, overflow := uint256.FromBig(big)
		if overflow {
			return nil, fmt.Errorf("%w: uint256 key %q overflows 256 bits", ErrUnsupportedType, value)
		}
		out := n.Bytes32()
		return out[:], nil
	case "string":
		return []byte(value), nil
	default:
		return nil, fmt.Errorf("%w: key type %q", ErrUnsupportedType, keyType)
	}
}

func crypto256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// layoutCommitment binds contract || query || key components || steps into
// a single content hash, H(contract || query || key || steps) per §4.10.
func layoutCommitment(contract common.Address, query string, components []QueryComponent, steps []DerivationStep) ContentHash {
	w := NewBinaryWriter()
	w.WriteBytes(contract.Bytes())
	w.WriteString(query)
	w.WriteUint32(uint32(len(components)))
	for _, c := range components {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(c.Kind))
		w.WriteBytes(buf[:])
		w.WriteString(c.Name)
		w.WriteString(c.Value)
		w.WriteString(c.KeyType)
	}
	w.WriteUint32(uint32(len(steps)))
	for _, s := range steps {
		w.WriteString(s.Kind)
		w.WriteUint32(uint32(len(s.Inputs)))
		for _, in := range s.Inputs {
			w.WriteString(in)
		}
		w.WriteString(s.Output)
	}
	return HashBytes(w.Bytes())
}
