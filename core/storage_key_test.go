package core

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func mappingABI() ContractABI {
	return ContractABI{Variables: map[string]SlotLayout{
		"balances": {Variable: "balances", BaseSlot: 3, IsMapping: true},
		"accounts": {
			Variable:    "accounts",
			BaseSlot:    5,
			FieldOffset: map[string]uint64{"nonce": 1},
		},
		"items": {Variable: "items", BaseSlot: 7, IsArray: true},
	}}
}

func TestResolveStorageKeyMapping(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{
		{Kind: ComponentVariable, Name: "balances"},
		{Kind: ComponentKey, KeyType: "address", Value: "0x00000000000000000000000000000000000000aa"},
	}
	resolved, err := ResolveStorageKey(common.Address{}, "balances[0xaa]", abi, components)
	if err != nil {
		t.Fatalf("ResolveStorageKey: %v", err)
	}
	if len(resolved.Steps) != 1 || resolved.Steps[0].Kind != "mapping" {
		t.Fatalf("expected a single mapping derivation step, got %+v", resolved.Steps)
	}
	if resolved.Commitment == (ContentHash{}) {
		t.Fatal("expected a non-zero layout commitment")
	}
}

func TestResolveStorageKeyStructFieldOffset(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{
		{Kind: ComponentVariable, Name: "accounts"},
		{Kind: ComponentFieldAccess, Name: "nonce"},
	}
	resolved, err := ResolveStorageKey(common.Address{}, "accounts.nonce", abi, components)
	if err != nil {
		t.Fatalf("ResolveStorageKey: %v", err)
	}
	if len(resolved.Steps) != 1 || resolved.Steps[0].Kind != "struct" {
		t.Fatalf("expected a single struct derivation step, got %+v", resolved.Steps)
	}
}

func TestResolveStorageKeyUnknownVariable(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{{Kind: ComponentVariable, Name: "nope"}}
	if _, err := ResolveStorageKey(common.Address{}, "nope", abi, components); err == nil {
		t.Fatal("expected an unknown root variable to error")
	}
}

func TestResolveStorageKeyUnknownField(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{
		{Kind: ComponentVariable, Name: "accounts"},
		{Kind: ComponentFieldAccess, Name: "missing"},
	}
	if _, err := ResolveStorageKey(common.Address{}, "accounts.missing", abi, components); err == nil {
		t.Fatal("expected an unknown struct field to error")
	}
}

func TestResolveStorageKeyRejectsNonVariableRoot(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{{Kind: ComponentKey, KeyType: "uint256", Value: "1"}}
	if _, err := ResolveStorageKey(common.Address{}, "bad", abi, components); err == nil {
		t.Fatal("expected a query not starting with a variable to error")
	}
}

func TestResolveArrayIndexIsDeterministic(t *testing.T) {
	base := common.HexToHash("0x07")
	slotA, stepA := ResolveArrayIndex(base, 2)
	slotB, _ := ResolveArrayIndex(base, 2)
	if slotA != slotB {
		t.Fatal("expected identical (base, index) to derive identical slots")
	}
	if stepA.Kind != "array" {
		t.Fatalf("expected an array derivation step, got %q", stepA.Kind)
	}
	slotC, _ := ResolveArrayIndex(base, 3)
	if slotA == slotC {
		t.Fatal("expected different indices to derive different slots")
	}
}

func TestEncodeKeyUint256HexAndDecimal(t *testing.T) {
	abi := mappingABI()
	hexComponents := []QueryComponent{
		{Kind: ComponentVariable, Name: "balances"},
		{Kind: ComponentKey, KeyType: "uint256", Value: "0x0a"},
	}
	decComponents := []QueryComponent{
		{Kind: ComponentVariable, Name: "balances"},
		{Kind: ComponentKey, KeyType: "uint256", Value: "10"},
	}
	hexResolved, err := ResolveStorageKey(common.Address{}, "q", abi, hexComponents)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	decResolved, err := ResolveStorageKey(common.Address{}, "q", abi, decComponents)
	if err != nil {
		t.Fatalf("dec: %v", err)
	}
	if hexResolved.Slot != decResolved.Slot {
		t.Fatal("expected 0x0a and 10 to encode to the same uint256 key")
	}
}

func TestEncodeKeyUint256OverflowRejected(t *testing.T) {
	abi := mappingABI()
	huge := "0x1" // 64 'f' digits appended below: 65 hex digits in all
	for i := 0; i < 64; i++ {
		huge += "f"
	}
	components := []QueryComponent{
		{Kind: ComponentVariable, Name: "balances"},
		{Kind: ComponentKey, KeyType: "uint256", Value: huge},
	}
	if _, err := ResolveStorageKey(common.Address{}, "q", abi, components); err == nil {
		t.Fatal("expected a uint256 key wider than 256 bits to be rejected")
	}
}

func TestEncodeKeyInvalidAddressRejected(t *testing.T) {
	abi := mappingABI()
	components := []QueryComponent{
		{Kind: ComponentVariable, Name: "balances"},
		{Kind: ComponentKey, KeyType: "address", Value: "not-an-address"},
	}
	if _, err := ResolveStorageKey(common.Address{}, "q", abi, components); err == nil {
		t.Fatal("expected an invalid address key to be rejected")
	}
}
