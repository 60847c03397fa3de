package kernel

// parker suspends and resumes one goroutine with minimal overhead,
// standing in for the context switch a real single-CPU scheduler would
// do with a saved stack pointer. It is a single-slot gate rather than a
// multi-waiter queue, since a parker belongs to exactly one TCB and only
// that task's own goroutine ever parks on it.
//
// The single buffered slot means ready is safe to call before the
// matching park: a ready that arrives first is not lost, it simply sits
// in the gate until the owning goroutine parks and drains it
// immediately.
type parker struct {
	gate chan struct{}
}

func newParker() *parker {
	return &parker{gate: make(chan struct{}, 1)}
}

// park blocks the calling goroutine until a matching ready call.
func (p *parker) park() {
	<-p.gate
}

// ready resumes the parked goroutine, or pre-arms the gate if it hasn't
// parked yet.
func (p *parker) ready() {
	select {
	case p.gate <- struct{}{}:
	default:
	}
}
