package noise

import "sync"

// workQueue is the shared pool of not-yet-processed point indices.
// Workers pop one index at a time under the queue lock and do the
// expensive neighbor query unlocked.
type workQueue struct {
	mu      sync.Mutex
	pending []int
	next    int
}

// newWorkQueue enqueues the indices 0..n-1.
func newWorkQueue(n int) *workQueue {
	pending := make([]int, n)
	for i := range pending {
		pending[i] = i
	}
	return &workQueue{pending: pending}
}

// pop removes and returns the next pending index. ok is false once the
// queue is drained, which is the worker termination signal.
func (q *workQueue) pop() (idx int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.pending) {
		return 0, false
	}
	idx = q.pending[q.next]
	q.next++
	return idx, true
}

// runWorkers launches threads identical pull-loop workers over the queue
// and blocks until all of them observe an empty queue. The returned join
// is the only synchronization barrier: every per-index write performed
// by process is visible once runWorkers returns.
func runWorkers(threads, n int, process func(idx int)) {
	q := newWorkQueue(n)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx, ok := q.pop()
				if !ok {
					return
				}
				process(idx)
			}
		}()
	}
	wg.Wait()
}
