package core

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func sampleValidatedProof(key string) ValidatedProof {
	req := ProofRequest{Domain: "d1", Contract: common.HexToAddress("0xaa"), StorageKey: key}
	raw := ProofResponse{
		BlockHash:    "0x" + fixedHex64,
		AccountProof: []string{"0xaa", "0xbb"},
		StorageProof: []StorageProofEntry{{Key: key, Value: "0x01", Proof: []string{"0xcc"}}},
	}
	return ValidatedProof{Request: req, Raw: raw, Hash: hashProof(req, raw)}
}

func TestBuildSingleWitnessPopulatesMetadata(t *testing.T) {
	p := sampleValidatedProof("0x01")
	w := BuildSingleWitness(p)
	if w.Metadata.WitnessType != WitnessSingle {
		t.Fatalf("expected WitnessSingle, got %s", w.Metadata.WitnessType)
	}
	if len(w.Metadata.Domains) != 1 || w.Metadata.Domains[0] != "d1" {
		t.Fatalf("expected metadata to record the single domain, got %v", w.Metadata.Domains)
	}
	if len(w.PublicInputs) == 0 || len(w.PrivateInputs) == 0 {
		t.Fatal("expected non-empty public and private input bytes")
	}
	if w.Key == (ContentHash{}) {
		t.Fatal("expected a non-zero witness key")
	}
}

func TestBuildBatchWitnessSpansEveryProof(t *testing.T) {
	ps := []ValidatedProof{sampleValidatedProof("0x01"), sampleValidatedProof("0x02")}
	w, err := BuildBatchWitness(ps)
	if err != nil {
		t.Fatalf("BuildBatchWitness: %v", err)
	}
	if w.Metadata.WitnessType != WitnessBatch {
		t.Fatalf("expected WitnessBatch, got %s", w.Metadata.WitnessType)
	}
	if len(w.Metadata.StorageKeys) != 2 {
		t.Fatalf("expected metadata for both proofs, got %v", w.Metadata.StorageKeys)
	}
}

func TestBuildBatchWitnessRejectsEmpty(t *testing.T) {
	if _, err := BuildBatchWitness(nil); err == nil {
		t.Fatal("expected an empty batch to be rejected")
	}
}

func TestWitnessCacheGetOrBuildCachesByRequestShape(t *testing.T) {
	cache, err := NewWitnessCache(8)
	if err != nil {
		t.Fatalf("NewWitnessCache: %v", err)
	}
	p := sampleValidatedProof("0x01")
	reqs := []ProofRequest{p.Request}

	first, err := cache.GetOrBuild(reqs, []ValidatedProof{p})
	if err != nil {
		t.Fatalf("first GetOrBuild: %v", err)
	}
	// a second call with different proof bytes for the same request shape
	// should still return the cached witness, not rebuild from the new bytes.
	altered := p
	altered.Hash = HashBytes([]byte("different"))
	second, err := cache.GetOrBuild(reqs, []ValidatedProof{altered})
	if err != nil {
		t.Fatalf("second GetOrBuild: %v", err)
	}
	if first.Key != second.Key {
		t.Fatal("expected the second call to hit the cache keyed on request shape")
	}
}
