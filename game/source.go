package game

// pollResult adapts a single already-known true/false readiness check
// and a real served count into a kernel.Source, for the event kinds
// waitEvent arbitrates between that aren't already a kernel.Source on
// their own: the drop timer elapsing and the opponent finishing their
// game. Each Player tracks how many times each kind has actually won
// the select, so platform.SelectAmong breaks ties by genuine
// least-recently-served order rather than a fixed priority.
type pollResult struct {
	ready  bool
	served uint64
}

func (p pollResult) Ready() (uint64, bool) { return p.served, p.ready }
