package game

import (
	"fmt"
	"math/rand"

	"github.com/taka-mtk/mtk/kernel"
	"github.com/taka-mtk/mtk/platform"
)

// Player is one side of a two-player match: its own task entry point
// (Run), its field and active piece, and a pointer to its opponent for
// reading score/garbage/game-over state across the match.
type Player struct {
	PortID int

	port     *platform.Port
	renderer *Renderer
	opponent *Player
	rng      *rand.Rand

	field           [FieldHeight][FieldWidth]byte
	displayBuf      [FieldHeight][FieldWidth]byte
	prevBuf         [FieldHeight][FieldWidth]byte
	prevOpponentBuf [FieldHeight][FieldWidth]byte

	opponentWasConnected bool

	state         GameState
	animStartTick uint64
	linesToClear  int

	minoType     MinoType
	minoAngle    Angle
	minoX, minoY int
	nextMinoType MinoType

	bag      [7]MinoType
	bagIndex int

	nextDropTime uint64
	seqState     int
	score        int
	linesCleared int

	pendingGarbage int // read/written only under SemGarbage
	isGameOver     bool
	syncGeneration int

	// Served counts for waitEvent's three-way platform.SelectAmong: the
	// port itself tracks its own served count, these cover the other two.
	timerSelectServed uint64
	winSelectServed   uint64
}

// NewPlayer returns a Player reading from and writing to port, drawing
// through renderer.
func NewPlayer(portID int, port *platform.Port, renderer *Renderer) *Player {
	return &Player{
		PortID:   portID,
		port:     port,
		renderer: renderer,
		rng:      rand.New(rand.NewSource(int64(portID + 1))),
	}
}

// LinkOpponent wires a and b so each can see the other's score, garbage
// target, and game-over state.
func LinkOpponent(a, b *Player) {
	a.opponent = b
	b.opponent = a
}

// Run is the task entry for one player: wait for the opening keypress,
// then play rounds forever, falling back to the retry handshake after
// every win, loss, or quit.
func (p *Player) Run(k *kernel.Kernel) {
	p.waitStartOrRetry(k, fmt.Sprintf("TETRIS P%d: Press Key", p.PortID+1))
	for {
		p.runTetris(k)
	}
}

func (p *Player) fillBag(k *kernel.Kernel) {
	for i := range p.bag {
		p.bag[i] = MinoType(i)
	}
	for i := 6; i > 0; i-- {
		j := int((k.Tick() + uint64(p.rng.Int63())) % uint64(i+1))
		p.bag[i], p.bag[j] = p.bag[j], p.bag[i]
	}
	p.bagIndex = 0
}

func (p *Player) resetMino(k *kernel.Kernel) {
	p.minoX, p.minoY = 5, 0
	p.minoType = p.nextMinoType
	p.minoAngle = Angle((k.Tick() + uint64(p.rng.Int63())) % uint64(AngMax))

	if p.bagIndex >= 7 {
		p.fillBag(k)
	}
	p.nextMinoType = p.bag[p.bagIndex]
	p.bagIndex++
}

func (p *Player) rotate() {
	na := (p.minoAngle + 1) % AngMax
	switch {
	case !p.isHit(p.minoX, p.minoY, p.minoType, na):
		p.minoAngle = na
	case !p.isHit(p.minoX+1, p.minoY, p.minoType, na):
		p.minoX++
		p.minoAngle = na
	case !p.isHit(p.minoX-1, p.minoY, p.minoType, na):
		p.minoX--
		p.minoAngle = na
	}
}

// processGarbage applies up to 4 pending attack lines to the field,
// reporting whether doing so tops the player out.
func (p *Player) processGarbage(k *kernel.Kernel) bool {
	k.P(SemGarbage)
	lines := p.pendingGarbage
	if lines > 0 {
		if lines > 4 {
			p.pendingGarbage -= 4
			lines = 4
		} else {
			p.pendingGarbage = 0
		}
	}
	k.V(SemGarbage)

	if lines <= 0 {
		return false
	}

	for row := 0; row < lines; row++ {
		for col := 1; col < FieldWidth-1; col++ {
			if p.field[row][col] != CellEmpty {
				return true
			}
		}
	}

	for i := 0; i < FieldHeight-1-lines; i++ {
		p.field[i] = p.field[i+lines]
	}
	for i := FieldHeight - 1 - lines; i < FieldHeight-1; i++ {
		p.field[i][0] = CellWall
		p.field[i][FieldWidth-1] = CellWall
		for j := 1; j < FieldWidth-1; j++ {
			p.field[i][j] = byte(2 + int(MinoGarbage))
		}
		hole := 1 + int((k.Tick()+uint64(p.rng.Int63())+uint64(i))%uint64(FieldWidth-2))
		p.field[i][hole] = CellEmpty
	}
	return false
}

// decodeKey feeds one input byte through the escape-sequence state
// machine, mapping arrow keys onto the same letters a raw WASD player
// would send. It returns an event and whether that event is complete
// (false while still mid-sequence).
func (p *Player) decodeKey(c byte) (Event, bool) {
	switch p.seqState {
	case 0:
		switch c {
		case 0x1b:
			p.seqState = 1
			return Event{}, false
		case 'q':
			return Event{Type: EventQuit}, true
		default:
			return Event{Type: EventKeyInput, Param: c}, true
		}
	case 1:
		if c == '[' {
			p.seqState = 2
		} else {
			p.seqState = 0
		}
		return Event{}, false
	default: // case 2
		p.seqState = 0
		var mapped byte
		switch c {
		case 'A':
			mapped = 'w'
		case 'B':
			mapped = 's'
		case 'C':
			mapped = 'd'
		case 'D':
			mapped = 'a'
		}
		if mapped != 0 {
			return Event{Type: EventKeyInput, Param: mapped}, true
		}
		return Event{}, false
	}
}

// waitEvent blocks (cooperatively) until something worth acting on
// happens: a decoded keypress, the drop timer elapsing, or the opponent
// reaching game over (reported as EventWin). The three are arbitrated by platform.SelectAmong rather than
// a fixed priority: the port contributes its own genuine served count,
// and the timer/opponent sources track how many times they've actually
// won the select, so whichever of the three has gone longest without
// being picked wins a tie. While waiting it periodically repaints so
// the opponent's side of the screen stays current.
func (p *Player) waitEvent(k *kernel.Kernel) Event {
	pollCount := 0
	for {
		deadlineReached := k.Tick() >= p.nextDropTime
		winReady := p.opponent != nil && p.opponent.isGameOver

		idx, ready := platform.SelectAmong(
			p.port,
			pollResult{ready: deadlineReached, served: p.timerSelectServed},
			pollResult{ready: winReady, served: p.winSelectServed},
		)
		if ready {
			switch idx {
			case 0:
				c, _ := p.port.TryRead()
				if e, done := p.decodeKey(c); done {
					return e
				}
				continue
			case 1:
				p.timerSelectServed++
				return Event{Type: EventTimer}
			default:
				p.winSelectServed++
				return Event{Type: EventWin}
			}
		}

		pollCount++
		if pollCount >= DisplayPollInterval {
			p.display(k)
			pollCount = 0
			if p.state == Animating {
				return Event{Type: EventNone}
			}
		}
		k.Yield()
	}
}

// waitStartOrRetry blocks for this player's own keypress, then waits
// for the opponent's matching sync generation (or proceeds alone if
// there is no opponent) before returning.
func (p *Player) waitStartOrRetry(k *kernel.Kernel, msg string) {
	SendDrawCommand(k, p.renderer, p.PortID, escCls+escHome+"%s", msg)

	for {
		if _, ok := p.port.TryRead(); ok {
			break
		}
		k.Yield()
	}

	p.rng = rand.New(rand.NewSource(int64(k.Tick())))
	p.syncGeneration++
	SendDrawCommand(k, p.renderer, p.PortID, escClrLine+"\rWaiting for opponent...\n")

	for p.opponent != nil && p.opponent.syncGeneration != p.syncGeneration {
		k.Yield()
	}
}

// lockMinoAndAdvance locks the active mino into the field and clears
// any now-complete lines. If lines cleared it enters the flash
// animation instead of immediately advancing; otherwise it runs the
// same bookkeeping finishDropCycle does after the animation ends.
func (p *Player) lockMinoAndAdvance(k *kernel.Kernel) (gameOver, animating bool) {
	shape := minoShapes[p.minoType][p.minoAngle]
	for i := 0; i < MinoHeight; i++ {
		for j := 0; j < MinoWidth; j++ {
			if shape[i][j] != 0 {
				p.field[p.minoY+i][p.minoX+j] = byte(2 + int(p.minoType))
			}
		}
	}

	lc := 0
	for i := 0; i < FieldHeight-1; i++ {
		full := true
		for j := 1; j < FieldWidth-1; j++ {
			if p.field[i][j] == CellEmpty {
				full = false
				break
			}
		}
		if full {
			for row := i; row > 0; row-- {
				p.field[row] = p.field[row-1]
			}
			lc++
		}
	}

	if lc > 0 {
		SendDrawCommand(k, p.renderer, p.PortID, "\a"+escInvertOn)
		p.state = Animating
		p.animStartTick = k.Tick()
		p.linesToClear = lc
		return false, true
	}

	return p.finishDropCycle(k), false
}

// finishDropCycle runs the bookkeeping shared by the no-lines-cleared
// path and the animation-finished path: apply pending garbage, spawn
// the next mino, and check for a top-out.
func (p *Player) finishDropCycle(k *kernel.Kernel) bool {
	if p.processGarbage(k) {
		p.isGameOver = true
		SendDrawCommand(k, p.renderer, p.PortID, escCls+escHome+"%sYOU LOSE%s", colBlue, escReset)
		p.waitStartOrRetry(k, "Press Any Key to Retry...")
		return true
	}

	p.resetMino(k)

	if p.isHit(p.minoX, p.minoY, p.minoType, p.minoAngle) {
		p.isGameOver = true
		SendDrawCommand(k, p.renderer, p.PortID, escCls+escHome+"%sYOU LOSE%s", colBlue, escReset)
		p.waitStartOrRetry(k, "Press Any Key to Retry...")
		return true
	}

	p.nextDropTime = k.Tick() + DropInterval
	return false
}

// runTetris plays a single round to its conclusion: win, loss, or
// quit, always returning through waitStartOrRetry so the next round
// only begins once both players are ready again.
func (p *Player) runTetris(k *kernel.Kernel) {
	p.score, p.linesCleared = 0, 0
	k.P(SemGarbage)
	p.pendingGarbage = 0
	k.V(SemGarbage)
	p.isGameOver = false
	p.state = Playing
	for i := range p.prevBuf {
		for j := range p.prevBuf[i] {
			p.prevBuf[i][j] = 0xff
		}
	}

	SendDrawCommand(k, p.renderer, p.PortID, escCls+escHideCursor)
	p.field = [FieldHeight][FieldWidth]byte{}
	for i := 0; i < FieldHeight; i++ {
		p.field[i][0] = CellWall
		p.field[i][FieldWidth-1] = CellWall
	}
	for j := 0; j < FieldWidth; j++ {
		p.field[FieldHeight-1][j] = CellWall
	}

	p.fillBag(k)
	p.nextMinoType = p.bag[p.bagIndex]
	p.bagIndex++
	p.resetMino(k)
	p.display(k)
	p.nextDropTime = k.Tick() + DropInterval

	for {
		e := p.waitEvent(k)

		if p.state == Animating {
			if k.Tick() >= p.animStartTick+AnimationDuration {
				SendDrawCommand(k, p.renderer, p.PortID, escInvertOff)
				p.linesCleared += p.linesToClear

				attack := 0
				if p.linesToClear >= 2 {
					if p.linesToClear == 4 {
						attack = 4
					} else {
						attack = p.linesToClear - 1
					}
				}
				if attack > 0 && p.opponent != nil && !p.opponent.isGameOver {
					k.P(SemGarbage)
					p.opponent.pendingGarbage += attack
					k.V(SemGarbage)
				}

				p.state = Playing
				p.nextDropTime = k.Tick() + DropInterval
				if p.finishDropCycle(k) {
					return
				}
			}
			continue
		}

		switch e.Type {
		case EventWin:
			SendDrawCommand(k, p.renderer, p.PortID, escCls+escHome+"%sYOU WIN!%s", colRed, escReset)
			p.waitStartOrRetry(k, "Press Any Key to Retry...")
			return
		case EventQuit:
			SendDrawCommand(k, p.renderer, p.PortID, escShowCursor+"Quit.\n")
			p.waitStartOrRetry(k, "Press Any Key to Retry...")
			return
		case EventKeyInput:
			switch e.Param {
			case 's':
				if !p.isHit(p.minoX, p.minoY+1, p.minoType, p.minoAngle) {
					p.minoY++
					p.nextDropTime = k.Tick() + DropInterval
				}
				p.display(k)
			case 'a':
				if !p.isHit(p.minoX-1, p.minoY, p.minoType, p.minoAngle) {
					p.minoX--
				}
				p.display(k)
			case 'd':
				if !p.isHit(p.minoX+1, p.minoY, p.minoType, p.minoAngle) {
					p.minoX++
				}
				p.display(k)
			case ' ':
				p.rotate()
				p.display(k)
			case 'w':
				for !p.isHit(p.minoX, p.minoY+1, p.minoType, p.minoAngle) {
					p.minoY++
				}
				gameOver, animating := p.lockMinoAndAdvance(k)
				if gameOver {
					return
				}
				if !animating {
					p.display(k)
				}
			}
		case EventTimer:
			if p.isHit(p.minoX, p.minoY+1, p.minoType, p.minoAngle) {
				gameOver, animating := p.lockMinoAndAdvance(k)
				if gameOver {
					return
				}
				if !animating {
					p.display(k)
				}
			} else {
				p.minoY++
				p.nextDropTime = k.Tick() + DropInterval
				p.display(k)
			}
		}
	}
}
