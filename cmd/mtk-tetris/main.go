// Command mtk-tetris wires the kernel, the platform layer, and the
// game package together: two player tasks, one per serial port, and a
// renderer task servicing both. Each port is bridged to its own real
// endpoint, exactly as the original program opened its own file
// descriptor per port instead of piping one player's output into the
// other's input.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/taka-mtk/mtk/game"
	"github.com/taka-mtk/mtk/kernel"
	"github.com/taka-mtk/mtk/platform"
)

func main() {
	port0Device := flag.String("port0", "stdio",
		`player 1's endpoint: "stdio" to use this process's own stdin/stdout, or a path to a bidirectional device file (e.g. a tty)`)
	port1Device := flag.String("port1", "",
		`player 2's endpoint: a path to a bidirectional device file (e.g. run "tty" in a second terminal window to find its path); required, since one process only has one stdio`)
	flag.Parse()

	if *port1Device == "" {
		log.Fatal("mtk-tetris: -port1 is required (a second terminal's tty path); -port0 defaults to this process's own stdio")
	}

	k := kernel.New()

	if err := k.InitSemaphore(game.SemGarbage, 1); err != nil {
		panic(err)
	}
	if err := k.InitSemaphore(game.SemRenderMutex, 1); err != nil {
		panic(err)
	}
	if err := k.InitSemaphore(game.SemRenderCount, 0); err != nil {
		panic(err)
	}

	stop := make(chan struct{})
	platform.StartTimer(k, stop)

	r0, w0, close0 := openEndpoint("port0", *port0Device)
	defer close0()
	stopBridge0 := platform.BridgeReadWriter(platform.Port0, r0, w0)
	defer stopBridge0()

	r1, w1, close1 := openEndpoint("port1", *port1Device)
	defer close1()
	stopBridge1 := platform.BridgeReadWriter(platform.Port1, r1, w1)
	defer stopBridge1()

	renderer := game.NewRenderer(platform.Port0, platform.Port1)
	player1 := game.NewPlayer(0, platform.Port0, renderer)
	player2 := game.NewPlayer(1, platform.Port1, renderer)
	game.LinkOpponent(player1, player2)

	if _, err := k.SetTask(player1.Run); err != nil {
		panic(err)
	}
	if _, err := k.SetTask(player2.Run); err != nil {
		panic(err)
	}
	if _, err := k.SetTask(renderer.Run); err != nil {
		panic(err)
	}

	k.BeginSch()
}

// openEndpoint resolves a -port0/-port1 flag value into a reader and
// writer for BridgeReadWriter: "stdio" uses this process's own
// stdin/stdout, anything else is opened as a single read/write device
// file (matching a real tty, which is bidirectional over one fd).
func openEndpoint(name, device string) (r io.Reader, w io.Writer, closeFn func() error) {
	if device == "stdio" {
		return os.Stdin, os.Stdout, func() error { return nil }
	}
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		log.Fatalf("mtk-tetris: opening %s device %q: %v", name, device, err)
	}
	return f, f, f.Close
}
