package platform_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taka-mtk/mtk/platform"
)

func TestPortWriteIsReadableOnPeer(t *testing.T) {
	a, b := platform.NewLoopback()

	a.Write('h')
	a.Write('i')

	got, ok := b.TryRead()
	require.True(t, ok)
	assert.Equal(t, byte('h'), got)

	got, ok = b.TryRead()
	require.True(t, ok)
	assert.Equal(t, byte('i'), got)

	_, ok = b.TryRead()
	assert.False(t, ok, "buffer should be drained")
}

func TestTryReadNeverBlocksOnEmptyPort(t *testing.T) {
	a, _ := platform.NewLoopback()
	_, ok := a.TryRead()
	assert.False(t, ok)
}

func TestWriteToUnconnectedPortIsNoop(t *testing.T) {
	p := platform.NewPort()
	assert.NotPanics(t, func() { p.Write('x') })
}

func TestInjectBypassesPeer(t *testing.T) {
	p := platform.NewPort()
	platform.Inject(p, 1, 2, 3)

	for _, want := range []byte{1, 2, 3} {
		got, ok := p.TryRead()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestPortReadyReflectsBufferState(t *testing.T) {
	a, b := platform.NewLoopback()
	_, ok := a.Ready()
	assert.False(t, ok)

	b.Write('z')
	_, ok = a.Ready()
	assert.True(t, ok)
}

func TestPortServedCountBreaksSelectTies(t *testing.T) {
	a, b := platform.NewLoopback()
	c, d := platform.NewLoopback()
	b.Write('1')
	d.Write('2')

	idx, ok := platform.SelectAmong(a, c)
	require.True(t, ok)
	assert.Equal(t, 0, idx, "both equally unserved, first source wins the tie")

	_, _ = a.TryRead()
	b.Write('3')
	d.Write('4')

	idx, ok = platform.SelectAmong(a, c)
	require.True(t, ok)
	assert.Equal(t, 1, idx, "a has been served once more than c, so c wins")
}

func TestTwoPortsAreIndependentByDefault(t *testing.T) {
	a, b := platform.NewPort(), platform.NewPort()
	a.Write('x')
	_, ok := b.TryRead()
	assert.False(t, ok, "unconnected ports must not see each other's writes")
}

func TestBridgeReadWriterDeliversInboundBytes(t *testing.T) {
	port := platform.NewPort()
	stop := platform.BridgeReadWriter(port, strings.NewReader("hi"), &bytes.Buffer{})
	defer stop()

	require.Eventually(t, func() bool {
		b, ok := port.TryRead()
		return ok && b == 'h'
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		b, ok := port.TryRead()
		return ok && b == 'i'
	}, time.Second, time.Millisecond)
}

func TestBridgeReadWriterDeliversOutboundBytes(t *testing.T) {
	port := platform.NewPort()
	var out bytes.Buffer
	stop := platform.BridgeReadWriter(port, strings.NewReader(""), &out)
	defer stop()

	port.Write('o')
	port.Write('k')

	require.Eventually(t, func() bool {
		return out.String() == "ok"
	}, time.Second, time.Millisecond)
}

func TestLEDsResetBetweenTests(t *testing.T) {
	platform.LEDs[0] = 1
	platform.ResetLEDs()
	for i, v := range platform.LEDs {
		assert.Equalf(t, byte(0), v, "LED %d not reset", i)
	}
}
