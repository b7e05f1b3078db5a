package core

// Given a set of registers in a single epoch and a named strategy, produces
// one or more Summary registers whose `summarizes` references the
// originals; each original's `summarized_by` is updated (§4.4).

import (
	"fmt"
	"time"
)

// SummaryStrategy produces one or more summary Contents payloads from a
// batch of originals. Registered by name so callers can select a strategy
// without the summary manager depending on concrete implementations (§9:
// dynamic dispatch via capability objects, not a subtype hierarchy).
type SummaryStrategy func(originals []Register) ([]Contents, error)

// SingleAggregateStrategy folds every original's balance content into one
// summary register carrying their sum, the simplest useful strategy.
func SingleAggregateStrategy(originals []Register) ([]Contents, error) {
	var total uint64
	for _, r := range originals {
		total += r.Contents.Balance
	}
	return []Contents{{Kind: ContentTokenBalance, Balance: total}}, nil
}

// SummaryManager owns the registry of named strategies and coordinates with
// the register store to mint Summary registers and back-link originals.
type SummaryManager struct {
	regs       *RegisterStore
	strategies map[string]SummaryStrategy
}

func NewSummaryManager(regs *RegisterStore) *SummaryManager {
	m := &SummaryManager{regs: regs, strategies: make(map[string]SummaryStrategy)}
	m.Register("single-aggregate", SingleAggregateStrategy)
	return m
}

// Register binds a named strategy; registration is explicit, per §9.
func (m *SummaryManager) Register(name string, s SummaryStrategy) {
	m.strategies[name] = s
}

// Summarize runs the named strategy over originals (which must share a
// single epoch), mints one Summary register per produced Contents value,
// and back-links every original's SummarizedBy.
func (m *SummaryManager) Summarize(strategyName string, originals []Register, owner Address, domain DomainID, txID string, now time.Time) ([]RegisterID, error) {
	if len(originals) == 0 {
		return nil, fmt.Errorf("%w: no registers to summarize", ErrInvalidState)
	}
	epoch := originals[0].Epoch
	for _, r := range originals {
		if r.Epoch != epoch {
			return nil, fmt.Errorf("%w: summarized registers span multiple epochs", ErrInvalidState)
		}
	}
	strategy, ok := m.strategies[strategyName]
	if !ok {
		return nil, fmt.Errorf("%w: summary strategy %q", ErrNotFound, strategyName)
	}
	payloads, err := strategy(originals)
	if err != nil {
		return nil, err
	}

	originalIDs := make([]RegisterID, len(originals))
	for i, r := range originals {
		originalIDs[i] = r.ID
	}

	var summaryIDs []RegisterID
	for i, payload := range payloads {
		salt := []byte(fmt.Sprintf("summary:%s:%d", strategyName, i))
		id := DeriveRegisterID(txID, salt)
		summary := NewRegister(id, owner, domain, payload, epoch, txID, now)
		if err := m.regs.Create(summary); err != nil {
			return nil, err
		}
		if err := m.regs.MarkAsSummary(id, originalIDs, now); err != nil {
			return nil, err
		}
		for _, origID := range originalIDs {
			if err := m.regs.SetSummarizedBy(origID, id); err != nil {
				return nil, err
			}
		}
		summaryIDs = append(summaryIDs, id)
	}
	return summaryIDs, nil
}
