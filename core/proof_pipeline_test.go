package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type fakeRPCClient struct {
	calls   int
	failN   int // fail this many calls before succeeding
	resp    ProofResponse
	failErr error
}

func (f *fakeRPCClient) GetProof(ctx context.Context, contract common.Address, storageKeys []string, blockNumber *uint64) (ProofResponse, error) {
	f.calls++
	if f.calls <= f.failN {
		if f.failErr != nil {
			return ProofResponse{}, f.failErr
		}
		return ProofResponse{}, errors.New("transient rpc error")
	}
	return f.resp, nil
}

func validProofResponse() ProofResponse {
	return ProofResponse{
		AccountProof: []string{"0xaa"},
		StorageProof: []StorageProofEntry{{Key: "0x01", Value: "0x02"}},
		BlockHash:    "0x" + fixedHex64,
	}
}

const fixedHex64 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestRetryingRPCClientSucceedsAfterTransientFailures(t *testing.T) {
	fake := &fakeRPCClient{failN: 2, resp: validProofResponse()}
	client := NewRetryingRPCClient(fake, 100, 3)
	resp, err := client.GetProof(context.Background(), common.Address{}, []string{"0x01"}, nil)
	if err != nil {
		t.Fatalf("expected success within the retry budget, got %v", err)
	}
	if resp.BlockHash != validProofResponse().BlockHash {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if fake.calls != 3 {
		t.Fatalf("expected 3 attempts (2 failures + 1 success), got %d", fake.calls)
	}
}

func TestRetryingRPCClientExhaustsRetriesAndReturnsError(t *testing.T) {
	fake := &fakeRPCClient{failN: 10}
	client := NewRetryingRPCClient(fake, 50, 2)
	if _, err := client.GetProof(context.Background(), common.Address{}, []string{"0x01"}, nil); err == nil {
		t.Fatal("expected an error once all retries are exhausted")
	}
	if fake.calls != 3 { // 1 initial + 2 retries
		t.Fatalf("expected 3 total attempts, got %d", fake.calls)
	}
}

func TestRetryingRPCClientNilInnerReturnsErrNoRPCClient(t *testing.T) {
	client := NewRetryingRPCClient(nil, 50, 1)
	if _, err := client.GetProof(context.Background(), common.Address{}, nil, nil); !errors.Is(err, ErrNoRPCClient) {
		t.Fatalf("expected ErrNoRPCClient, got %v", err)
	}
}

func TestProofPipelineFetchCachesOnSecondCall(t *testing.T) {
	fake := &fakeRPCClient{resp: validProofResponse()}
	pipeline := NewProofPipeline(fake, 10, time.Hour)
	req := ProofRequest{Domain: "d", Contract: common.Address{}, StorageKey: "0x01"}

	first, err := pipeline.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := pipeline.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected the second Fetch to hit the cache, got %d RPC calls", fake.calls)
	}
	if first.Hash != second.Hash {
		t.Fatal("expected the cached proof to match the originally fetched one")
	}
}

func TestProofPipelineFetchRejectsMalformedBlockHash(t *testing.T) {
	fake := &fakeRPCClient{resp: ProofResponse{
		AccountProof: []string{"0xaa"},
		StorageProof: []StorageProofEntry{{Key: "0x01", Value: "0x02"}},
		BlockHash:    "not-a-hash",
	}}
	pipeline := NewProofPipeline(fake, 10, time.Hour)
	req := ProofRequest{Domain: "d", Contract: common.Address{}, StorageKey: "0x01"}
	if _, err := pipeline.Fetch(context.Background(), req); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for a malformed block hash, got %v", err)
	}
}

func TestProofPipelineFetchRejectsEmptyAccountProof(t *testing.T) {
	fake := &fakeRPCClient{resp: ProofResponse{
		AccountProof: nil,
		StorageProof: []StorageProofEntry{{Key: "0x01", Value: "0x02"}},
		BlockHash:    "0x" + fixedHex64,
	}}
	pipeline := NewProofPipeline(fake, 10, time.Hour)
	req := ProofRequest{Domain: "d", Contract: common.Address{}, StorageKey: "0x01"}
	if _, err := pipeline.Fetch(context.Background(), req); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for an empty account proof, got %v", err)
	}
}

func TestProofPipelineFetchWithNoClientReturnsErrNoRPCClient(t *testing.T) {
	pipeline := NewProofPipeline(nil, 10, time.Hour)
	req := ProofRequest{Domain: "d", Contract: common.Address{}, StorageKey: "0x01"}
	if _, err := pipeline.Fetch(context.Background(), req); !errors.Is(err, ErrNoRPCClient) {
		t.Fatalf("expected ErrNoRPCClient, got %v", err)
	}
}
