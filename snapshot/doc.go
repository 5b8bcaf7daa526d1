// Package snapshot persists imputation state.
//
// A snapshot captures everything a resumed run needs: the dataset, the chain
// configuration, the imputation matrices, the convergence traces, the event
// log and the per-copy RNG streams. Resuming from a loaded snapshot therefore
// produces exactly the values a never-interrupted run would have produced.
//
// The wire format is a small header (magic, format version, compression
// codec) followed by a gob-encoded body, optionally compressed with zstd or
// lz4.
package snapshot
