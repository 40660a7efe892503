// Package search implements a parallel keyspace search that races a fixed
// number of workers to the first candidate satisfying a caller-supplied
// predicate.
//
// The keyspace [0, upperBound) is split across workers by interleaved
// striding: worker i of N scans i, i+N, i+2N, and so on. Partitions are
// disjoint and cover the keyspace, and the striding spreads uneven
// per-candidate cost evenly across workers instead of clustering it in
// contiguous ranges.
//
// Each worker emits exactly one Outcome: Found with the matching candidate
// and its derived form, or NotFound when its partition is exhausted. "No
// match" is a normal terminal state carried as data, never as an error. A
// panic inside a worker's scan is a genuine fault: it is captured, counted,
// and kept separate from the Outcome protocol, and it does not abort the
// race while other partitions may still produce a match.
//
// The pool resolves on the first Found outcome, or with a negative result
// once every worker has either exhausted its partition or faulted. On every
// exit path, successful or not, the pool cancels and joins all workers
// before returning: a completed Run never leaves a worker executing.
package search
