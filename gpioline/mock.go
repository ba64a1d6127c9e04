// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package gpioline

import "errors"

// ErrExhausted is returned by Mock.Read once all scripted levels have been consumed.
var ErrExhausted = errors.New("gpioline: mock source exhausted")

// Mock is a scripted Source for tests: it returns a fixed sequence of levels and then
// ErrExhausted; ErrExhausted is the only read error it produces.
type Mock struct {
	Levels []Level
	pos    int
}

func (m *Mock) Read() (Level, error) {
	if m.pos >= len(m.Levels) {
		return Low, ErrExhausted
	}
	l := m.Levels[m.pos]
	m.pos++
	return l, nil
}

func (m *Mock) Close() error { return nil }
