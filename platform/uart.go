// Package platform provides the simulated board peripherals an
// application built on the kernel runs against: two serial ports, a
// tick-generating timer, and a bank of status LEDs.
package platform

import "github.com/taka-mtk/mtk/kernel"

// portCapacity bounds how many unread bytes a port buffers before it
// starts dropping incoming traffic.
const portCapacity = 256

// Port is one simulated UART. Reading is always non-blocking: an
// application task that wants to wait for input calls TryRead in a
// loop, yielding to the kernel between attempts, exactly as inbyte is
// never allowed to suspend.
type Port struct {
	in     *ringBuffer[byte]
	served uint64
	peer   *Port
}

var _ kernel.Source = (*Port)(nil)

// NewPort returns an unconnected port. Use Connect to wire it to a peer.
func NewPort() *Port {
	return &Port{in: newRingBuffer[byte](portCapacity)}
}

// Connect wires a and b so that a Write to one arrives as a readable
// byte on the other, standing in for a null-modem cable between two
// boards.
func Connect(a, b *Port) {
	a.peer = b
	b.peer = a
}

// TryRead returns the next buffered byte without blocking.
func (p *Port) TryRead() (byte, bool) {
	b, ok := p.in.tryPop()
	if ok {
		p.served++
	}
	return b, ok
}

// Write sends b to whatever port is connected as this port's peer.
// Write never blocks and never touches the scheduler.
func (p *Port) Write(b byte) {
	if p.peer == nil {
		return
	}
	p.peer.in.push(b)
}

// Ready implements kernel.Source so a port can be one of several inputs
// a task multiplexes over with kernel.SelectReady.
func (p *Port) Ready() (served uint64, ok bool) {
	return p.served, p.in.count() > 0
}

// SelectAmong picks whichever of the given sources has been served
// least recently among those currently ready. It takes kernel.Source
// rather than *Port so the same fairness rule that arbitrates between
// several ports can also arbitrate between heterogeneous event sources
// (a port, a timer deadline, a game-over flag) in a single call.
func SelectAmong(sources ...kernel.Source) (int, bool) {
	return kernel.SelectReady(sources...)
}

// Port0 and Port1 are the board's two independent serial ports. Each is
// its own external connection: Port0 to whatever is wired to UART1,
// Port1 to whatever is wired to UART2, not to each other. Use Connect
// or BridgeReadWriter to attach each one to its actual endpoint.
var (
	Port0 = NewPort()
	Port1 = NewPort()
)
