package core

// Serializes a register to canonical binary, writes it to the archive
// store, and records the reference back on the register (§4.4, §6).

import (
	"fmt"
	"time"
)

// ArchiveManager persists registers whose state may move to Archived
// (Active, Locked or Consumed) into a content-addressed store and can later
// verify them.
type ArchiveManager struct {
	store   ContentStore
	storeID string
	regs    *RegisterStore
}

func NewArchiveManager(store ContentStore, storeID string, regs *RegisterStore) *ArchiveManager {
	return &ArchiveManager{store: store, storeID: storeID, regs: regs}
}

// encodeRegister produces the canonical binary form archived alongside a
// register's content hash, epoch, and block height (§6 persisted layout).
func encodeRegister(r *Register) []byte {
	w := NewBinaryWriter()
	w.WriteBytes(r.ID[:])
	w.WriteBytes(r.Owner[:])
	w.WriteString(string(r.Domain))
	w.WriteUint32(uint32(r.Contents.Kind))
	w.WriteBytes(r.Contents.Binary)
	w.WriteString(r.Contents.String)
	w.WriteUint64(r.Contents.Balance)
	w.WriteUint32(uint32(r.State))
	w.WriteUint64(uint64(r.CreatedAt.UnixNano()))
	w.WriteUint64(uint64(r.LastUpdated.UnixNano()))
	w.WriteUint64(r.LastUpdatedHeight)
	w.WriteUint64(r.Epoch)
	w.WriteString(r.CreatedByTx)
	w.WriteString(r.ConsumedByTx)
	if r.Metadata != nil {
		w.WriteSortedMap(r.Metadata.ToMap())
	} else {
		w.WriteSortedMap(nil)
	}
	return w.Bytes()
}

// Archive serializes register id, writes it to the backing store, and
// transitions the register to Archived with the resulting ArchiveRef
// recorded on it, per §4.4.
func (a *ArchiveManager) Archive(id RegisterID, now time.Time) (ArchiveRef, error) {
	r, err := a.regs.Get(id)
	if err != nil {
		return ArchiveRef{}, err
	}
	bytes := encodeRegister(&r)
	hash := HashBytes(bytes)
	key := hash.String()
	if err := a.store.StoreBytes(key, bytes); err != nil {
		return ArchiveRef{}, fmt.Errorf("archive: store bytes: %w", err)
	}
	ref := ArchiveRef{StoreID: a.storeID, ContentHash: hash}
	if err := a.regs.Archive(id, ref, now); err != nil {
		return ArchiveRef{}, err
	}
	return ref, nil
}

// VerifyArchive reports whether the stored bytes for ref still match its
// recorded content hash.
func (a *ArchiveManager) VerifyArchive(ref ArchiveRef) (bool, error) {
	raw, err := a.store.GetBytes(ref.ContentHash.String())
	if err != nil {
		return false, err
	}
	return HashBytes(raw) == ref.ContentHash, nil
}
