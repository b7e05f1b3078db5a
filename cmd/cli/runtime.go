// Package cli wires the register-machine runtime's cobra subcommands
// around a process-wide runtime instance, initialised once per process
// the way the teacher's cmd/cli singletons guard their controllers.
package cli

import (
	"errors"
	"sync"
	"time"

	core "synnergy-lrt/core"
)

var (
	rtOnce sync.Once
	rtErr  error

	regs      *core.RegisterStore
	nullifier *core.NullifierSet
	timeMap   *core.TimeMap
	epochs    *core.EpochManager
	gc        *core.GarbageCollector
	archives  *core.ArchiveManager
	summaries *core.SummaryManager
	templates *core.TemplateLibrary
)

// runtimeInit lazily constructs the shared runtime state every CLI
// subcommand operates against.
func runtimeInit() error {
	rtOnce.Do(func() {
		timeMap = core.NewTimeMap()
		regs = core.NewRegisterStore(timeMap)
		nullifier = regs.Nullifiers()
		gc = core.NewGarbageCollector(regs, 10)
		epochs = core.NewEpochManager(100, true, gc)
		gc.SetEpochManager(epochs)
		archives = core.NewArchiveManager(core.NewMemoryStore(), "cli-archive", regs)
		summaries = core.NewSummaryManager(regs)
		templates = core.NewTemplateLibrary()
	})
	if regs == nil {
		rtErr = errors.New("runtime: failed to initialise")
	}
	return rtErr
}

func nowSim() time.Time { return time.Now().UTC() }
