package core

// The eth_getProof-shaped transport the proof pipeline fetches account and
// storage proofs over (§4.10, §6). Retries immediately, with no delay
// between attempts, per the
// teacher's habit of bounding every external call with timeout + retry
// counts drawn from config (pkg/config's Proof section).

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProofResponse mirrors the shape of an eth_getProof JSON-RPC result.
type ProofResponse struct {
	Address      common.Address
	AccountProof []string
	Balance      string
	CodeHash     string
	Nonce        string
	StorageHash  string
	StorageProof []StorageProofEntry
	BlockHash    string // "0x" + 64 hex, the block this proof was taken against
}

// StorageProofEntry is one entry of an eth_getProof storage_proof array.
type StorageProofEntry struct {
	Key   string
	Value string // "0x" + >=0 hex
	Proof []string
}

// RPCClient fetches storage proofs from a remote node. Implementations
// range from a real JSON-RPC HTTP client to the in-memory fake used in
// tests.
type RPCClient interface {
	GetProof(ctx context.Context, contract common.Address, storageKeys []string, blockNumber *uint64) (ProofResponse, error)
}

// RetryingRPCClient wraps an RPCClient with a fixed timeout and retry count,
// both sourced from configuration (pkg/config's Proof section) rather than
// hardcoded, following the teacher's config-driven external-call posture.
type RetryingRPCClient struct {
	inner   RPCClient
	timeout time.Duration
	retries int
}

func NewRetryingRPCClient(inner RPCClient, timeoutMS, retries int) *RetryingRPCClient {
	return &RetryingRPCClient{inner: inner, timeout: time.Duration(timeoutMS) * time.Millisecond, retries: retries}
}

func (c *RetryingRPCClient) GetProof(ctx context.Context, contract common.Address, storageKeys []string, blockNumber *uint64) (ProofResponse, error) {
	if c.inner == nil {
		return ProofResponse{}, ErrNoRPCClient
	}
	var lastErr error
	attempts := c.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.inner.GetProof(callCtx, contract, storageKeys, blockNumber)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return ProofResponse{}, fmt.Errorf("rpc: get_proof failed after %d attempts: %w", attempts, lastErr)
}
