package panel

// axis accumulates the motion of one quadrature encoder between mouse
// reports.
type axis struct {
	clk, dir bool
	pos      int8
}

func (e *Engine) trackMouse() {
	m := e.cfg.Mouse
	e.track(&e.x, e.raw(m.XClk), e.raw(m.XDir), m.DeltaX)
	e.track(&e.y, e.raw(m.YClk), e.raw(m.YDir), m.DeltaY)
}

func (e *Engine) raw(i int) bool { return e.state[i].count != 0 }

// track decodes one encoder sample. A clock edge with a steady direction
// line, or a direction edge with a steady clock, is one step.
func (e *Engine) track(a *axis, clk, dir bool, delta int8) {
	if clk != a.clk {
		if dir == a.dir {
			e.move(a, clk != dir, delta)
		}
		a.clk = clk
	}
	if dir != a.dir {
		if clk == a.clk {
			e.move(a, clk == dir, delta)
		}
		a.dir = dir
	}
}

// move saturates at +-127.
func (e *Engine) move(a *axis, negative bool, delta int8) {
	if negative {
		if a.pos > -(127 - delta) {
			a.pos -= delta
		}
	} else if a.pos < 127-delta {
		a.pos += delta
	}
	e.dirtyMouse = true
}
