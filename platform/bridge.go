package platform

import (
	"io"
	"time"
)

// pumpPollInterval bounds how long BridgeReadWriter's outbound pump
// sleeps between checks of an idle port, mirroring the teacher task's
// own yield-and-retry polling shape without touching the kernel at all:
// this is a platform-level goroutine, not a scheduled task.
const pumpPollInterval = time.Millisecond

// BridgeReadWriter attaches port to a real external endpoint: bytes
// read from r arrive on port exactly as if a peer had written them, and
// bytes port.Write sends are copied out to w. This is how a port
// reaches an actual terminal or device file instead of another
// simulated port; Connect is for wiring two simulated ports together
// (tests, loopbacks), BridgeReadWriter is for wiring one to the outside
// world. It returns a stop function that ends both pump goroutines; the
// inbound pump only notices the stop once its pending r.Read returns.
// r and w are not closed.
func BridgeReadWriter(port *Port, r io.Reader, w io.Writer) (stop func()) {
	link := NewPort()
	Connect(port, link)

	done := make(chan struct{})

	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := r.Read(buf)
			if n > 0 {
				link.Write(buf[0])
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			b, ok := link.TryRead()
			if !ok {
				time.Sleep(pumpPollInterval)
				continue
			}
			if _, err := w.Write([]byte{b}); err != nil {
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}
