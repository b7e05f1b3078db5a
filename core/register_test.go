package core

import (
	"testing"
	"time"
)

func testAddress(b byte) Address {
	var a Address
	a[0] = b
	return a
}

func TestDeriveRegisterIDDistinctForDifferentSalts(t *testing.T) {
	id1 := DeriveRegisterID("tx1", []byte("salt-a"))
	id2 := DeriveRegisterID("tx1", []byte("salt-b"))
	if id1 == id2 {
		t.Fatal("expected different salts to derive different register ids")
	}
}

func TestRegisterStoreCreateAndConsume(t *testing.T) {
	store := NewRegisterStore(nil)
	id := DeriveRegisterID("tx1", []byte("s"))
	now := time.Now()
	reg := NewRegister(id, testAddress(1), DomainID("d1"), Contents{Kind: ContentTokenBalance, Balance: 10}, 0, "tx1", now)

	if err := store.Create(reg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(reg); err == nil {
		t.Fatal("expected duplicate Create to fail")
	}

	nf, err := store.Consume(id, "d1", "tx2", nil, 1, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if nf.Status != NullifierSpent {
		t.Fatalf("expected a Spent nullifier, got %s", nf.Status)
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != StateConsumed {
		t.Fatalf("expected register state Consumed, got %s", got.State)
	}
}

func TestRegisterStoreConsumeTwiceFails(t *testing.T) {
	store := NewRegisterStore(nil)
	id := DeriveRegisterID("tx1", []byte("s"))
	now := time.Now()
	reg := NewRegister(id, testAddress(1), DomainID("d1"), Contents{Kind: ContentBinary}, 0, "tx1", now)
	if err := store.Create(reg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Consume(id, "d1", "tx2", nil, 1, now); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if _, err := store.Consume(id, "d1", "tx3", nil, 2, now); err == nil {
		t.Fatal("expected consuming an already-Consumed register to fail")
	}
}

func TestNullifierSetDoubleSpend(t *testing.T) {
	ns := NewNullifierSet()
	id := DeriveRegisterID("tx", []byte("salt"))
	if _, err := ns.Insert(id, "tx1", 5); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if _, err := ns.Insert(id, "tx2", 6); err == nil {
		t.Fatal("expected a second Insert on an already-spent register to fail")
	}
}

func TestNullifierSetRejectsHeightRegression(t *testing.T) {
	ns := NewNullifierSet()
	id1 := DeriveRegisterID("tx1", []byte("a"))
	id2 := DeriveRegisterID("tx2", []byte("b"))
	if _, err := ns.Insert(id1, "tx1", 10); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := ns.Insert(id2, "tx2", 5); err == nil {
		t.Fatal("expected a height regression to be rejected")
	}
}

func TestCanTransitionTable(t *testing.T) {
	if !CanTransition(StateActive, StateLocked) {
		t.Fatal("Active -> Locked should be permitted")
	}
	if CanTransition(StateConsumed, StateActive) {
		t.Fatal("Consumed -> Active must never be permitted")
	}
	if CanTransition(StateTombstone, StateActive) {
		t.Fatal("Tombstone is terminal; no outgoing transitions")
	}
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", "1")
	m.Set("a", "2")
	m.Set("z", "3") // update, not a new key
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("expected insertion order [z a], got %v", keys)
	}
	if v, _ := m.Get("z"); v != "3" {
		t.Fatalf("expected updated value for z, got %q", v)
	}
}
