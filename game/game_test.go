package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taka-mtk/mtk/kernel"
	"github.com/taka-mtk/mtk/platform"
)

const testTimeout = 5 * time.Second

func newTestPlayer() *Player {
	port0, port1 := platform.NewLoopback()
	r := NewRenderer(port0, port1)
	return NewPlayer(0, port0, r)
}

func TestIsHitDetectsWalls(t *testing.T) {
	p := newTestPlayer()
	for i := 0; i < FieldHeight; i++ {
		p.field[i][0] = CellWall
		p.field[i][FieldWidth-1] = CellWall
	}
	for j := 0; j < FieldWidth; j++ {
		p.field[FieldHeight-1][j] = CellWall
	}

	assert.True(t, p.isHit(-1, 0, MinoO, Ang0), "off the left wall")
	assert.True(t, p.isHit(FieldWidth, 0, MinoO, Ang0), "off the right wall")
	assert.True(t, p.isHit(5, FieldHeight, MinoO, Ang0), "below the floor")
	assert.False(t, p.isHit(5, 0, MinoO, Ang0), "open space")
}

func TestIsHitDetectsExistingBlocks(t *testing.T) {
	p := newTestPlayer()
	p.field[5][5] = byte(2 + int(MinoI))
	assert.True(t, p.isHit(4, 4, MinoO, Ang0))
}

func TestFillBagIsAPermutationOfAllSevenPieces(t *testing.T) {
	k := kernel.New()
	p := newTestPlayer()
	p.fillBag(k)

	seen := map[MinoType]bool{}
	for _, m := range p.bag {
		seen[m] = true
	}
	assert.Len(t, seen, 7, "all seven piece types must appear exactly once")
	assert.Equal(t, 0, p.bagIndex)
}

func TestResetMinoRefillsBagWhenExhausted(t *testing.T) {
	k := kernel.New()
	p := newTestPlayer()
	p.fillBag(k)
	p.nextMinoType = p.bag[p.bagIndex]
	p.bagIndex++
	p.bagIndex = 7 // force a refill on the next call

	p.resetMino(k)
	assert.Equal(t, 1, p.bagIndex)
	assert.Equal(t, 5, p.minoX)
	assert.Equal(t, 0, p.minoY)
}

func TestProcessGarbageCapsAtFourLinesPerCall(t *testing.T) {
	k := kernel.New()
	require.NoError(t, k.InitSemaphore(SemGarbage, 1))
	p := newTestPlayer()
	for i := 0; i < FieldHeight; i++ {
		p.field[i][0] = CellWall
		p.field[i][FieldWidth-1] = CellWall
	}
	p.pendingGarbage = 6

	done := make(chan struct{})
	_, err := k.SetTask(func(kk *kernel.Kernel) {
		gameOver := p.processGarbage(kk)
		assert.False(t, gameOver)
		close(done)
	})
	require.NoError(t, err)
	go k.BeginSch()
	<-done

	assert.Equal(t, 2, p.pendingGarbage, "6 requested, 4 consumed, 2 left for next call")
	holes := 0
	for col := 1; col < FieldWidth-1; col++ {
		val := p.field[FieldHeight-2][col]
		if val == CellEmpty {
			holes++
			continue
		}
		assert.Equal(t, byte(2+int(MinoGarbage)), val)
	}
	assert.Equal(t, 1, holes, "exactly one gap per garbage row")
}

func TestProcessGarbageToppingOutReturnsTrue(t *testing.T) {
	k := kernel.New()
	require.NoError(t, k.InitSemaphore(SemGarbage, 1))
	p := newTestPlayer()
	p.field[0][5] = byte(2 + int(MinoI)) // block already sitting in the top row
	p.pendingGarbage = 1

	done := make(chan struct{})
	var gameOver bool
	_, err := k.SetTask(func(kk *kernel.Kernel) {
		gameOver = p.processGarbage(kk)
		close(done)
	})
	require.NoError(t, err)
	go k.BeginSch()
	<-done

	assert.True(t, gameOver)
}

func TestDecodeKeyMapsArrowsToWASD(t *testing.T) {
	p := newTestPlayer()

	cases := []struct {
		seq  []byte
		want byte
	}{
		{[]byte{0x1b, '[', 'A'}, 'w'},
		{[]byte{0x1b, '[', 'B'}, 's'},
		{[]byte{0x1b, '[', 'C'}, 'd'},
		{[]byte{0x1b, '[', 'D'}, 'a'},
	}
	for _, c := range cases {
		p.seqState = 0
		var last Event
		var done bool
		for _, b := range c.seq {
			last, done = p.decodeKey(b)
		}
		require.True(t, done)
		assert.Equal(t, EventKeyInput, last.Type)
		assert.Equal(t, c.want, last.Param)
	}
}

func TestDecodeKeyPlainQIsQuit(t *testing.T) {
	p := newTestPlayer()
	e, done := p.decodeKey('q')
	require.True(t, done)
	assert.Equal(t, EventQuit, e.Type)
}

func TestDecodeKeyPlainCharPassesThrough(t *testing.T) {
	p := newTestPlayer()
	e, done := p.decodeKey('a')
	require.True(t, done)
	assert.Equal(t, EventKeyInput, e.Type)
	assert.Equal(t, byte('a'), e.Param)
}

func TestSendDrawCommandDeliversToCorrectPort(t *testing.T) {
	k := kernel.New()
	require.NoError(t, k.InitSemaphore(SemRenderMutex, 1))
	require.NoError(t, k.InitSemaphore(SemRenderCount, 0))

	port0, port1 := platform.NewLoopback()
	observer0, observer1 := platform.NewPort(), platform.NewPort()
	platform.Connect(port0, observer0)
	platform.Connect(port1, observer1)
	r := NewRenderer(observer0, observer1)

	done := make(chan struct{})
	_, err := k.SetTask(func(kk *kernel.Kernel) {
		SendDrawCommand(kk, r, 1, "hi")
		close(done)
	})
	require.NoError(t, err)
	_, err = k.SetTask(r.Run)
	require.NoError(t, err)

	go k.BeginSch()
	<-done

	require.Eventually(t, func() bool {
		_, ok := port1.TryRead()
		return ok
	}, testTimeout, time.Millisecond, "port1 should receive the rendered bytes")
}

func TestLockMinoAndAdvanceClearsFullLines(t *testing.T) {
	k := kernel.New()
	require.NoError(t, k.InitSemaphore(SemGarbage, 1))
	require.NoError(t, k.InitSemaphore(SemRenderMutex, 1))
	require.NoError(t, k.InitSemaphore(SemRenderCount, 0))

	p := newTestPlayer()

	for i := 0; i < FieldHeight; i++ {
		p.field[i][0] = CellWall
		p.field[i][FieldWidth-1] = CellWall
	}
	for j := 0; j < FieldWidth; j++ {
		p.field[FieldHeight-1][j] = CellWall
	}
	// Fill the second-to-last row except for columns 5 and 6, which the
	// active O-mino will fill in by locking.
	row := FieldHeight - 2
	for j := 1; j < FieldWidth-1; j++ {
		if j == 5 || j == 6 {
			continue
		}
		p.field[row][j] = byte(2 + int(MinoI))
	}
	p.minoType = MinoO
	p.minoAngle = Ang0
	p.minoX, p.minoY = 4, row-1

	done := make(chan struct{})
	var gameOver, animating bool
	_, err := k.SetTask(func(kk *kernel.Kernel) {
		gameOver, animating = p.lockMinoAndAdvance(kk)
		close(done)
	})
	require.NoError(t, err)
	_, err = k.SetTask(p.renderer.Run)
	require.NoError(t, err)
	go k.BeginSch()
	<-done

	assert.False(t, gameOver)
	assert.True(t, animating, "a completed line enters the flash animation, not an immediate advance")
	assert.Equal(t, Animating, p.state)
	assert.Equal(t, 1, p.linesToClear)
}
