package game

import (
	"fmt"

	"github.com/taka-mtk/mtk/kernel"
	"github.com/taka-mtk/mtk/platform"
)

const renderQueueSize = 64

// renderQueue is the bounded ring buffer draw commands pass through on
// their way from a player task to the renderer task. Its head and tail
// are never touched by more than one goroutine outside of
// SemRenderMutex; the fullness check in SendDrawCommand reads tail
// unguarded, which is safe for the same reason the kernel's own queues
// are: only one task is ever actually executing at a time.
type renderQueue struct {
	cmds [renderQueueSize]RenderCommand
	head int
	tail int
}

// Renderer is the consumer half of the producer/consumer pair formed
// with the player tasks: it drains queued draw commands and writes each
// one to the serial port it names.
type Renderer struct {
	q     renderQueue
	ports [2]*platform.Port
}

// NewRenderer returns a Renderer that writes port-0-addressed commands
// to port0 and port-1-addressed commands to port1.
func NewRenderer(port0, port1 *platform.Port) *Renderer {
	return &Renderer{ports: [2]*platform.Port{port0, port1}}
}

// Run is the renderer's task entry. It never returns: it blocks on
// SemRenderCount until a command is queued, then drains and writes it.
// Separating output from game logic this way keeps a slow or blocked
// UART write from stalling either player's turn.
func (r *Renderer) Run(k *kernel.Kernel) {
	for {
		k.P(SemRenderCount)

		k.P(SemRenderMutex)
		cmd := r.q.cmds[r.q.tail]
		r.q.tail = (r.q.tail + 1) % renderQueueSize
		k.V(SemRenderMutex)

		port := r.ports[cmd.PortID]
		for i := 0; i < len(cmd.Str); i++ {
			port.Write(cmd.Str[i])
		}
	}
}

// SendDrawCommand formats args into msg and enqueues the result for r
// to draw on portID. If the queue is momentarily full, it yields to
// give the renderer a turn instead of blocking outright: draw commands
// are never dropped, and a command's formatted length has no limit.
func SendDrawCommand(k *kernel.Kernel, r *Renderer, portID int, format string, args ...any) {
	str := fmt.Sprintf(format, args...)

	for {
		next := (r.q.head + 1) % renderQueueSize
		if next != r.q.tail {
			break
		}
		k.Yield()
	}

	k.P(SemRenderMutex)
	next := (r.q.head + 1) % renderQueueSize
	r.q.cmds[r.q.head] = RenderCommand{PortID: portID, Str: str}
	r.q.head = next
	k.V(SemRenderMutex)

	k.V(SemRenderCount)
}
