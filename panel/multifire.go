package panel

// multifire gates the physical level of its input and replays every accepted
// press as Count on/off cycles. The output feeds the regular debouncer.
type multifire struct {
	cfg   Multifire
	delay int
	count int
	cycle int
}

func (m *multifire) step(pressed bool) bool {
	switch {
	case m.delay == 0 && pressed:
		m.delay = m.cfg.Latency
		m.count = min(m.count+m.cfg.Count, 255)
	case m.delay > 1:
		m.delay--
	case m.delay == 1 && !pressed:
		m.delay = 0
	}

	if m.count == 0 {
		return false
	}
	on := m.cycle < m.cfg.On
	if m.cycle >= m.cfg.Period {
		m.cycle = 0
		m.count--
	} else {
		m.cycle++
	}
	return on
}
