package core

// Groups individually-resolved storage commitments into a batch carrying a
// Merkle root, so a verifier can check one root against many leaves instead
// of re-validating every proof independently (§3, §4.10).

import (
	"crypto/sha256"
	"fmt"

	merkle "github.com/xsleonard/go-merkle"
)

// StorageCommitment binds one resolved storage slot's value to the chain
// position it was observed at.
type StorageCommitment struct {
	ID              string
	Domain          DomainID
	ContractAddress string
	StorageKey      string
	ValueHash       ContentHash
	BlockNumber     uint64
}

func (c StorageCommitment) leafBytes() []byte {
	w := NewBinaryWriter()
	w.WriteString(c.ID)
	w.WriteString(string(c.Domain))
	w.WriteString(c.ContractAddress)
	w.WriteString(c.StorageKey)
	w.WriteBytes(c.ValueHash[:])
	w.WriteUint64(c.BlockNumber)
	return w.Bytes()
}

// StorageBatch is an ordered set of commitments plus the Merkle root over
// their canonical leaf encodings.
type StorageBatch struct {
	Commitments []StorageCommitment
	Root        []byte
	tree        *merkle.Tree
}

// NewStorageBatch builds the Merkle tree over commitments' canonical leaf
// encodings, in the order given (batch order is significant for
// reproducible roots).
func NewStorageBatch(commitments []StorageCommitment) (*StorageBatch, error) {
	if len(commitments) == 0 {
		return nil, fmt.Errorf("%w: empty storage batch", ErrInvalidProof)
	}
	leaves := make([][]byte, len(commitments))
	for i, c := range commitments {
		leaves[i] = c.leafBytes()
	}
	tree := merkle.NewTree()
	if err := tree.Generate(leaves, sha256.New); err != nil {
		return nil, fmt.Errorf("storage batch: generate merkle tree: %w", err)
	}
	root := tree.Root().Hash
	return &StorageBatch{Commitments: commitments, Root: root, tree: tree}, nil
}

// VerifyMembership reports whether the batch holds a commitment with the
// same ID and ValueHash, by a linear scan of Commitments. It does not
// consult the Merkle tree or root, and checks no inclusion proof.
func (b *StorageBatch) VerifyMembership(commitment StorageCommitment) bool {
	for _, c := range b.Commitments {
		if c.ID == commitment.ID && c.ValueHash == commitment.ValueHash {
			return true
		}
	}
	return false
}
