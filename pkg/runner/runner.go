// Package runner is the thin adapter around the VM core that a caller needs
// to actually execute a program: allocate segments, load data, set up the
// initial frame, and loop Step until a halting pc. None of this is opcode
// logic - it exists only so the core in pkg/vm can be driven end to end.
package runner

import (
	"log/slog"

	"github.com/feltlabs/cairo-vm-core/pkg/vm"
	"github.com/feltlabs/cairo-vm-core/pkg/vm/memory"
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// Runner owns a VirtualMachine plus the segments a non-proof-mode program
// needs: the program segment holding the loaded instructions, the execution
// segment holding ap/fp's stack frame, and two single-purpose segments whose
// base addresses serve as the outermost frame's fake return fp/pc.
type Runner struct {
	VM      *vm.VirtualMachine
	Program memory.Relocatable
	Exec    memory.Relocatable
	Logger  *slog.Logger
}

// Builtins is accepted only to be rejected: this core never executes
// builtin segments, so asking for one is a configuration error rather than
// something to silently ignore.
type Config struct {
	Data             []memory.MaybeRelocatable
	EntrypointOffset int
	Builtins         []string
	Logger           *slog.Logger
}

// NewRunner allocates the program and execution segments, loads data into
// the program segment, and sets pc/ap/fp so a Ret at the end of the program
// has a fake return frame to land on: execution[0] holds a return fp and
// execution[1] a return pc, each pointing at the base of its own dedicated
// segment - addresses a well-formed program never otherwise writes to, so a
// spurious Ret out of the outermost frame is easy to recognize.
func NewRunner(cfg Config) (*Runner, error) {
	if len(cfg.Builtins) > 0 {
		return nil, vmerr.Newf(vmerr.InvalidOpcode, "builtin runners are not supported by this core: %v", cfg.Builtins)
	}

	v := vm.NewVirtualMachine()
	program := v.Segments.AddSegment()
	exec := v.Segments.AddSegment()
	retFpSegment := v.Segments.AddSegment()
	retPcSegment := v.Segments.AddSegment()

	if _, err := v.Segments.LoadData(program, cfg.Data); err != nil {
		return nil, err
	}

	fakeRetFp := memory.NewFromRelocatable(retFpSegment)
	fakeRetPc := memory.NewFromRelocatable(retPcSegment)
	stackBase, err := v.Segments.LoadData(exec, []memory.MaybeRelocatable{fakeRetFp, fakeRetPc})
	if err != nil {
		return nil, err
	}

	v.RunContext.Pc = memory.Relocatable{SegmentIndex: program.SegmentIndex, Offset: cfg.EntrypointOffset}
	v.RunContext.Ap = stackBase
	v.RunContext.Fp = stackBase

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}

	return &Runner{VM: v, Program: program, Exec: exec, Logger: logger}, nil
}

// RunUntilPc steps the VM until pc equals stop, logging one debug-level
// record per step through Logger (emitted only if its handler enables debug). The loop only ever exits
// successfully by reaching stop before the next Step; an EndOfInstructions
// reached first is a genuine error here, same as any other Step failure.
func (r *Runner) RunUntilPc(stop memory.Relocatable) error {
	for r.VM.RunContext.Pc != stop {
		pc, ap, fp := r.VM.RunContext.Pc, r.VM.RunContext.Ap, r.VM.RunContext.Fp
		if err := r.VM.Step(); err != nil {
			return err
		}
		r.Logger.Debug("step",
			slog.String("pc", pc.String()),
			slog.String("ap", ap.String()),
			slog.String("fp", fp.String()),
			slog.Int("step", int(r.VM.CurrentStep)),
		)
	}
	return nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
