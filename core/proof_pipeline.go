package core

// Fetches, validates, and content-addresses storage proofs, fronted by a
// 1-hour-TTL LRU cache (§4.10).

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	blockHashPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	storageValuePrefix = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)
)

// ValidatedProof is a proof that has passed the pipeline's structural
// checks, ready to be witnessed.
type ValidatedProof struct {
	Request ProofRequest
	Raw     ProofResponse
	Hash    ContentHash
}

// ProofRequest names one (domain, contract, key, block?) fetch.
type ProofRequest struct {
	Domain      DomainID
	Contract    common.Address
	StorageKey  string
	BlockNumber *uint64
}

func (r ProofRequest) cacheKey() string {
	block := "latest"
	if r.BlockNumber != nil {
		block = fmt.Sprintf("%d", *r.BlockNumber)
	}
	return fmt.Sprintf("%s|%s|%s|%s", r.Domain, r.Contract.Hex(), r.StorageKey, block)
}

// ProofPipeline fetches and validates storage proofs, caching validated
// results for one hour (§4.10).
type ProofPipeline struct {
	client RPCClient
	cache  *expirable.LRU[string, ValidatedProof]
}

// NewProofPipeline builds a pipeline whose cache holds up to capacity
// entries for up to ttl (default 1 hour per §4.10).
func NewProofPipeline(client RPCClient, capacity int, ttl time.Duration) *ProofPipeline {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ProofPipeline{client: client, cache: expirable.NewLRU[string, ValidatedProof](capacity, nil, ttl)}
}

// Fetch consults the cache first; on a miss it calls the RPC client,
// validates the result, caches it, and returns it.
func (p *ProofPipeline) Fetch(ctx context.Context, req ProofRequest) (ValidatedProof, error) {
	key := req.cacheKey()
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	if p.client == nil {
		return ValidatedProof{}, ErrNoRPCClient
	}
	raw, err := p.client.GetProof(ctx, req.Contract, []string{req.StorageKey}, req.BlockNumber)
	if err != nil {
		return ValidatedProof{}, fmt.Errorf("proof pipeline: fetch: %w", err)
	}
	if err := validateProof(raw); err != nil {
		return ValidatedProof{}, err
	}

	hash := hashProof(req, raw)
	validated := ValidatedProof{Request: req, Raw: raw, Hash: hash}
	p.cache.Add(key, validated)
	return validated, nil
}

// validateProof runs the placeholder verifiers of §4.10: account proof
// non-empty, storage proof non-empty, block-hash format, storage-value
// prefix.
func validateProof(raw ProofResponse) error {
	if len(raw.AccountProof) == 0 {
		return fmt.Errorf("%w: empty account proof", ErrInvalidProof)
	}
	if len(raw.StorageProof) == 0 {
		return fmt.Errorf("%w: empty storage proof", ErrInvalidProof)
	}
	if !blockHashPattern.MatchString(raw.BlockHash) {
		return fmt.Errorf("%w: malformed block hash %q", ErrInvalidProof, raw.BlockHash)
	}
	for _, entry := range raw.StorageProof {
		if !storageValuePrefix.MatchString(entry.Value) {
			return fmt.Errorf("%w: malformed storage value %q", ErrInvalidProof, entry.Value)
		}
	}
	return nil
}

func hashProof(req ProofRequest, raw ProofResponse) ContentHash {
	w := NewBinaryWriter()
	w.WriteString(string(req.Domain))
	w.WriteBytes(req.Contract.Bytes())
	w.WriteString(req.StorageKey)
	w.WriteString(raw.BlockHash)
	w.WriteString(strings.Join(raw.AccountProof, "|"))
	for _, sp := range raw.StorageProof {
		w.WriteString(sp.Key)
		w.WriteString(sp.Value)
	}
	return HashBytes(w.Bytes())
}
