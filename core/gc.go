package core

// A register is GC-eligible iff it is Archived or Tombstone AND its epoch
// is older than current_epoch - retention_epochs (§4.4).

// GarbageCollector removes eligible registers from the register store. It
// does not touch archive-store bytes; archived content outlives the
// register entry that once pointed to it, by design of §4.4.
type GarbageCollector struct {
	regs            *RegisterStore
	epochs          *EpochManager
	retentionEpochs uint64
	collected       []RegisterID
}

func NewGarbageCollector(regs *RegisterStore, retentionEpochs uint64) *GarbageCollector {
	return &GarbageCollector{regs: regs, retentionEpochs: retentionEpochs}
}

// SetEpochManager wires the epoch manager after construction, breaking the
// otherwise-circular NewEpochManager(..., gc)/NewGarbageCollector(..., epochs)
// initialization order.
func (g *GarbageCollector) SetEpochManager(e *EpochManager) { g.epochs = e }

// Eligible reports whether a register in the given state and epoch is
// eligible for collection relative to the current epoch.
func (g *GarbageCollector) Eligible(state RegisterState, epoch, currentEpoch uint64) bool {
	if state != StateArchived && state != StateTombstone {
		return false
	}
	if currentEpoch < g.retentionEpochs {
		return false
	}
	return epoch < currentEpoch-g.retentionEpochs
}

// GarbageCollectEpoch collects every eligible register stamped with epoch
// e, removing it from the live register store. Returns the ids collected.
func (g *GarbageCollector) GarbageCollectEpoch(e uint64) []RegisterID {
	current := g.epochs.Current()
	candidates := g.regs.AllInEpoch(e)
	var collected []RegisterID
	for _, r := range candidates {
		if g.Eligible(r.State, r.Epoch, current) {
			g.regs.mu.Lock()
			delete(g.regs.registers, r.ID)
			g.regs.mu.Unlock()
			collected = append(collected, r.ID)
		}
	}
	g.collected = append(g.collected, collected...)
	return collected
}

// TotalCollected returns the running count of registers ever collected.
func (g *GarbageCollector) TotalCollected() int { return len(g.collected) }
