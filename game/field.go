package game

import "github.com/taka-mtk/mtk/kernel"

// isHit reports whether placing mt at angle ang with its top-left
// corner at (x, y) would collide with a wall, the floor, or an existing
// block.
func (p *Player) isHit(x, y int, mt MinoType, ang Angle) bool {
	shape := minoShapes[mt][ang]
	for i := 0; i < MinoHeight; i++ {
		for j := 0; j < MinoWidth; j++ {
			if shape[i][j] == 0 {
				continue
			}
			fx, fy := x+j, y+i
			if fy < 0 || fy >= FieldHeight || fx < 0 || fx >= FieldWidth {
				return true
			}
			if p.field[fy][fx] != CellEmpty {
				return true
			}
		}
	}
	return false
}

func queueCellDraw(k *kernel.Kernel, r *Renderer, portID int, val byte) {
	switch {
	case val == CellEmpty:
		SendDrawCommand(k, r, portID, "%s・%s", bgBlack, escReset)
	case val == CellWall:
		SendDrawCommand(k, r, portID, "%s%s■%s", bgBlack, colWall, escReset)
	case val == CellGhost:
		SendDrawCommand(k, r, portID, "%s%s□%s", bgBlack, colGray, escReset)
	case val >= 2 && val <= 9:
		SendDrawCommand(k, r, portID, "%s%s■%s", bgBlack, minoColors[val-2], escReset)
	default:
		SendDrawCommand(k, r, portID, "??")
	}
}

// display composes the current field, ghost piece, and active piece
// into a display buffer, then emits draw commands for only the cells
// that changed since the last call, on both the player's own half of
// the screen and the opponent's mirrored half.
func (p *Player) display(k *kernel.Kernel) {
	opponent := p.opponent
	if opponent != nil && !p.opponentWasConnected {
		for i := range p.prevOpponentBuf {
			for j := range p.prevOpponentBuf[i] {
				p.prevOpponentBuf[i][j] = 0xff
			}
		}
	}
	p.opponentWasConnected = opponent != nil

	p.displayBuf = p.field

	if p.minoType != MinoGarbage {
		ghostY := p.minoY
		for !p.isHit(p.minoX, ghostY+1, p.minoType, p.minoAngle) {
			ghostY++
		}
		shape := minoShapes[p.minoType][p.minoAngle]
		for i := 0; i < MinoHeight; i++ {
			for j := 0; j < MinoWidth; j++ {
				if shape[i][j] == 0 {
					continue
				}
				y, x := ghostY+i, p.minoX+j
				if y < FieldHeight && x < FieldWidth && p.displayBuf[y][x] == CellEmpty {
					p.displayBuf[y][x] = CellGhost
				}
			}
		}

		shape = minoShapes[p.minoType][p.minoAngle]
		for i := 0; i < MinoHeight; i++ {
			for j := 0; j < MinoWidth; j++ {
				if shape[i][j] == 0 {
					continue
				}
				y, x := p.minoY+i, p.minoX+j
				if y < FieldHeight && x < FieldWidth {
					p.displayBuf[y][x] = byte(2 + int(p.minoType))
				}
			}
		}
	}

	SendDrawCommand(k, p.renderer, p.PortID, "\x1b[1;1H")
	k.P(SemGarbage)
	pending := p.pendingGarbage
	k.V(SemGarbage)
	SendDrawCommand(k, p.renderer, p.PortID, "[YOU] SC:%-5d LN:%-3d ATK:%d", p.score, p.linesCleared, pending)
	SendDrawCommand(k, p.renderer, p.PortID, "\x1b[1;%dH", OpponentOffsetX)
	if opponent != nil {
		SendDrawCommand(k, p.renderer, p.PortID, "[RIVAL] SC:%-5d LN:%-3d", opponent.score, opponent.linesCleared)
	} else {
		SendDrawCommand(k, p.renderer, p.PortID, "[RIVAL] (Waiting...)    ")
	}
	SendDrawCommand(k, p.renderer, p.PortID, "%s", escClrLine)

	SendDrawCommand(k, p.renderer, p.PortID, "\n--------------------------")
	if opponent != nil {
		SendDrawCommand(k, p.renderer, p.PortID, "\x1b[2;%dH--------------------------", OpponentOffsetX)
	}
	SendDrawCommand(k, p.renderer, p.PortID, "%s", escClrLine)

	const baseY = 3
	for i := 0; i < FieldHeight; i++ {
		for j := 0; j < FieldWidth; j++ {
			val := p.displayBuf[i][j]
			if val != p.prevBuf[i][j] {
				SendDrawCommand(k, p.renderer, p.PortID, "\x1b[%d;%dH", baseY+i, j*2+1)
				queueCellDraw(k, p.renderer, p.PortID, val)
				p.prevBuf[i][j] = val
			}
		}
		if opponent != nil {
			for j := 0; j < FieldWidth; j++ {
				val := opponent.displayBuf[i][j]
				if val != p.prevOpponentBuf[i][j] {
					SendDrawCommand(k, p.renderer, p.PortID, "\x1b[%d;%dH", baseY+i, OpponentOffsetX+j*2)
					queueCellDraw(k, p.renderer, p.PortID, val)
					p.prevOpponentBuf[i][j] = val
				}
			}
		}
	}
}
