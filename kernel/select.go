package kernel

// Source is something SelectReady can poll for readiness: a serial
// port with a byte waiting, a drop timer whose deadline has passed, an
// opponent-finished flag. A single method is enough since SelectReady
// only needs to pick a winner, not also extract its payload; the
// caller does that itself once it knows which source won.
type Source interface {
	// Ready reports whether this source currently has something
	// pending, and a monotonically increasing "served" count used to
	// break ties in favor of whichever source has been chosen least
	// recently.
	Ready() (served uint64, ok bool)
}

// SelectReady makes a single non-blocking pass over sources and returns
// the index of whichever ready source has been served least recently.
// ok is false if none are currently ready.
//
// This never loops internally and never yields the CPU: every primitive
// an application polls in a loop (inbyte, tick, a game's wait-for-event)
// must return immediately, leaving the decision to Yield to the caller.
// The polling loop itself belongs to the caller (see game.Player's
// event loop).
func SelectReady(sources ...Source) (index int, ok bool) {
	least := ^uint64(0)
	found := false
	for i, s := range sources {
		served, ready := s.Ready()
		if ready && served < least {
			least = served
			index = i
			found = true
		}
	}
	return index, found
}
