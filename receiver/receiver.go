// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package receiver is the main loop: it drives the pulse sampler and symbol decoder once per
// second, feeds the result through the minute framer, and at the end of each minute invokes
// the frame decoder, the display sink, the metrics collector, and (if configured) the setclock
// collaborator. It owns the three state objects (pulse.Decoder, frame.State, decode.Decoder)
// the upstream decoder kept as file-scoped globals, mirroring mainloop.c's mainloop().
package receiver

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/tve/npltime/calendar"
	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/display"
	"github.com/tve/npltime/frame"
	"github.com/tve/npltime/metrics"
	"github.com/tve/npltime/pulse"
	"github.com/tve/npltime/setclock"
	"github.com/tve/npltime/thread"
)

// Loop wires the pipeline stages together and drives one second at a time.
type Loop struct {
	Bits    *pulse.Decoder
	Frame   *frame.State
	Decode  *decode.Decoder
	Sink    pulse.Sink // typically a *capturelog.Writer
	Display display.Sink
	Clock   setclock.Setter // nil disables clock-setting

	CurTime calendar.Time
	InitMin int // counts 2 -> 1 -> 0, matching mainloop's init_min
	SetTime bool
}

// NewLoop returns a Loop ready to run, with InitMin seeded at 2 per mainloop's startup value.
func NewLoop(bits *pulse.Decoder, fr *frame.State, dec *decode.Decoder, sink pulse.Sink, disp display.Sink) *Loop {
	return &Loop{Bits: bits, Frame: fr, Decode: dec, Sink: sink, Display: disp, InitMin: 2}
}

// Run drives the pipeline until ctx is cancelled or a Display InputProcessor requests it,
// one second per iteration. It pins itself to a realtime-scheduled OS thread first, so the
// sampler's sub-second pacing isn't at the mercy of the Go scheduler; this is best-effort and
// non-fatal, matching mqttradio's own use of thread.Realtime for its radio goroutines.
func (l *Loop) Run(ctx context.Context) {
	if err := thread.Realtime(); err != nil {
		log.Warn("cannot make receiver loop realtime", "err", err)
	}
	for ctx.Err() == nil {
		if l.Step() {
			return
		}
	}
}

// Step runs exactly one second of the pipeline: sample+classify, frame, and, at a minute
// boundary, decode+display+metrics+(optionally) setclock. It returns true if the display's
// InputProcessor (if any) requested the loop stop, mirroring process_input's mlr.quit.
func (l *Loop) Step() bool {
	bitPos59 := l.Frame.BitPos == 59
	frameGarbled := l.Frame.Marker == frame.Late || l.Frame.Marker == frame.TooLong
	res := l.Bits.GetBit(bitPos59, frameGarbled, l.Sink)

	quit := false
	if ip, ok := l.Display.(display.InputProcessor); ok {
		quit = ip.ProcessInput(l.Frame.BitPos)
	}
	l.Display.DisplayBit(res, l.Frame.BitPos)

	l.Frame.SetSymbol(res.Symbol)
	metrics.ObserveBit(res, l.Bits.Timing, l.Bits.Sampler.Freq)

	marker := l.Frame.NextBit()
	metrics.ObserveMarker(marker)

	minLen := l.Frame.OldBitPos
	switch marker {
	case frame.TooLong, frame.Late:
		minLen = -1
		l.Display.DisplayLongMinute()
	}
	l.Display.DisplayNewSecond()

	if marker == frame.Minute || marker == frame.Late {
		l.handleNewMinute(minLen, marker)
	}
	return quit
}

// handleNewMinute runs the per-minute pipeline stages, mirroring check_handle_new_minute.
func (l *Loop) handleNewMinute(minLen int, marker frame.Marker) {
	l.Display.DisplayMinute(l.Bits.AccMinLen, minLen, l.Frame.Cutoff)

	dt := l.Decode.DecodeTime(l.InitMin, minLen, l.Bits.AccMinLen, l.Frame.Buffer, &l.CurTime)
	l.Display.DisplayTime(dt, l.CurTime)
	metrics.ObserveMinute(dt)

	setResult := setclock.ResultUnset
	if l.SetTime && l.Clock != nil {
		setResult = setclock.Attempt(l.Clock, l.InitMin, dt, marker,
			l.CurTime.Year, l.CurTime.Month, l.CurTime.MDay, l.CurTime.Hour, l.CurTime.Minute)
	}
	if sp, ok := l.Display.(display.SetclockResultProcessor); ok && l.SetTime {
		sp.ProcessSetclockResult(l.SetTime, setResult == setclock.ResultOK, l.Frame.BitPos)
	}

	l.Bits.AccMinLen = 0
	if l.InitMin > 0 {
		l.InitMin--
	}
}
