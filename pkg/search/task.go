package search

// SearchTask describes one worker's partition of the keyspace. It is
// constructed by the pool, handed to exactly one worker, and never shared
// or mutated afterwards.
//
// Worker i of N owns the candidates {i, i+N, i+2N, ...} strictly below
// UpperBound. The partitions of the N workers are pairwise disjoint by
// construction and together cover [0, UpperBound).
type SearchTask struct {
	// WorkerIndex identifies the worker and doubles as the first candidate
	// of its partition.
	WorkerIndex int

	// Stride is the distance between consecutive candidates, equal to the
	// worker count of the run.
	Stride uint64

	// UpperBound is the exclusive limit of the keyspace.
	UpperBound uint64
}

// NewSearchTask builds the task for worker workerIndex out of workerCount.
// When upperBound <= workerIndex the partition is empty, which is valid:
// the worker exhausts it immediately.
func NewSearchTask(workerIndex, workerCount int, upperBound uint64) SearchTask {
	return SearchTask{
		WorkerIndex: workerIndex,
		Stride:      uint64(workerCount),
		UpperBound:  upperBound,
	}
}

// Size returns the number of candidates in the partition.
func (t SearchTask) Size() uint64 {
	first := uint64(t.WorkerIndex)
	if first >= t.UpperBound {
		return 0
	}
	return (t.UpperBound-first-1)/t.Stride + 1
}
