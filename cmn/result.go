package cmn

// Result is the GC core's own error taxonomy (spec.md §7), distinct from Go
// error chains: every evacuation/orchestration step resolves to one of
// these before deciding whether to continue, retry, or abort the run.
type Result int

const (
	// ResNone: nothing more to do (non-error, non-terminal) — e.g. a scan
	// found no victim because there is nothing dirty left to collect.
	ResNone Result = iota
	// ResDone: this step finished cleanly.
	ResDone
	// ResNext: skip this block/section and move on (ground: GC_NEXT), not
	// propagated to the caller's caller — contained within one evacuation.
	ResNext
	// ResBlocked: checkpoint pressure or an in-flight fsync forced a stop
	// (ground: should_do_checkpoint / CP_TRIMMED flag checks); orchestrator
	// escalates to a checkpoint and may retry.
	ResBlocked
	// ResError: an unrecoverable I/O or consistency error.
	ResError
)

func (r Result) String() string {
	switch r {
	case ResNone:
		return "none"
	case ResDone:
		return "done"
	case ResNext:
		return "next"
	case ResBlocked:
		return "blocked"
	case ResError:
		return "error"
	default:
		return "unknown"
	}
}
