package core

// Packages one or many validated proofs into the public/private-input
// shape a ZK circuit consumes, content-addressed and LRU-cached (§4.10).

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WitnessType distinguishes a single-request witness from a batched one.
type WitnessType string

const (
	WitnessSingle WitnessType = "single"
	WitnessBatch  WitnessType = "batch"
)

// WitnessMetadata carries the per-request context a verifier needs beyond
// the raw input/output bytes.
type WitnessMetadata struct {
	Domains           []DomainID
	BlockNumbers      []uint64
	ContractAddresses []string
	StorageKeys       []string
	WitnessType       WitnessType
}

// Witness is the assembled {public_inputs, private_inputs, expected_outputs,
// constraints} tuple plus metadata (§4.10).
type Witness struct {
	PublicInputs    []byte
	PrivateInputs   []byte
	ExpectedOutputs []byte
	Constraints     []string
	Metadata        WitnessMetadata
	Key             ContentHash
}

// BuildSingleWitness assembles a witness for exactly one validated proof.
//   public_inputs  = block_hash || contract || key
//   private_inputs = value || account_proof || storage_proof
func BuildSingleWitness(p ValidatedProof) Witness {
	return buildWitness([]ValidatedProof{p}, WitnessSingle)
}

// BuildBatchWitness assembles one witness spanning every proof in ps, in
// the order given.
func BuildBatchWitness(ps []ValidatedProof) (Witness, error) {
	if len(ps) == 0 {
		return Witness{}, fmt.Errorf("%w: empty witness batch", ErrInvalidProof)
	}
	return buildWitness(ps, WitnessBatch), nil
}

func buildWitness(ps []ValidatedProof, kind WitnessType) Witness {
	pub := NewBinaryWriter()
	priv := NewBinaryWriter()
	var meta WitnessMetadata
	meta.WitnessType = kind

	for _, p := range ps {
		pub.WriteString(p.Raw.BlockHash)
		pub.WriteBytes(p.Request.Contract.Bytes())
		pub.WriteString(p.Request.StorageKey)

		for _, sp := range p.Raw.StorageProof {
			priv.WriteString(sp.Value)
		}
		priv.WriteString(joinStrings(p.Raw.AccountProof))
		for _, sp := range p.Raw.StorageProof {
			priv.WriteString(joinStrings(sp.Proof))
		}

		meta.Domains = append(meta.Domains, p.Request.Domain)
		if p.Request.BlockNumber != nil {
			meta.BlockNumbers = append(meta.BlockNumbers, *p.Request.BlockNumber)
		}
		meta.ContractAddresses = append(meta.ContractAddresses, p.Request.Contract.Hex())
		meta.StorageKeys = append(meta.StorageKeys, p.Request.StorageKey)
	}

	expected := NewBinaryWriter()
	for _, p := range ps {
		expected.WriteBytes(p.Hash[:])
	}

	w := Witness{
		PublicInputs:    pub.Bytes(),
		PrivateInputs:   priv.Bytes(),
		ExpectedOutputs: expected.Bytes(),
		Constraints:     []string{"storage_proof_valid", "block_hash_matches_header"},
		Metadata:        meta,
	}
	keyWriter := NewBinaryWriter()
	keyWriter.WriteBytes(w.PublicInputs)
	keyWriter.WriteBytes(w.ExpectedOutputs)
	w.Key = HashBytes(keyWriter.Bytes())
	return w
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += "|"
		}
		out += s
	}
	return out
}

// WitnessCache is a content-addressed LRU over assembled witnesses, keyed
// by the request shape that produced them rather than Witness.Key (so a
// repeated request hits the cache before assembly work happens).
type WitnessCache struct {
	cache *lru.Cache[string, Witness]
}

func NewWitnessCache(capacity int) (*WitnessCache, error) {
	c, err := lru.New[string, Witness](capacity)
	if err != nil {
		return nil, err
	}
	return &WitnessCache{cache: c}, nil
}

// requestKey derives a cache key from the batch of requests a witness was
// assembled for, independent of the fetched proof bytes.
func requestKey(reqs []ProofRequest) string {
	w := NewBinaryWriter()
	for _, r := range reqs {
		w.WriteString(string(r.Domain))
		w.WriteBytes(r.Contract.Bytes())
		w.WriteString(r.StorageKey)
	}
	return HashBytes(w.Bytes()).String()
}

// GetOrBuild returns a cached witness for reqs if present; otherwise it
// builds one from ps (which must correspond 1:1 with reqs) and caches it.
func (c *WitnessCache) GetOrBuild(reqs []ProofRequest, ps []ValidatedProof) (Witness, error) {
	key := requestKey(reqs)
	if w, ok := c.cache.Get(key); ok {
		return w, nil
	}
	kind := WitnessSingle
	if len(ps) > 1 {
		kind = WitnessBatch
	}
	w := buildWitness(ps, kind)
	c.cache.Add(key, w)
	return w, nil
}
