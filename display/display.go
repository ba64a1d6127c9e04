// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package display defines the capability interface the receiver loop uses to report bits,
// minute summaries, and decoded time, plus the console implementation used by the live and
// analyze commands. Per spec.md's Design Notes, the upstream decoder's function-pointer
// callbacks collapse into one Sink interface with two optional policy methods.
package display

import (
	"fmt"
	"io"

	"github.com/tve/npltime/calendar"
	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/pulse"
)

// Sink receives the receiver loop's per-second and per-minute events. DisplayBit, DisplayTime,
// DisplayMinute, and DisplayLongMinute are called unconditionally; ProcessInput and
// ProcessSetclockResult are optional policy hooks a particular mode (e.g. replay) can use to
// terminate the loop or react to a clock-set attempt, and are only invoked when the
// implementation also satisfies InputProcessor/SetclockResultProcessor.
type Sink interface {
	DisplayBit(res pulse.Result, bitPos int)
	DisplayTime(dt decode.Result, t calendar.Time)
	DisplayMinute(accMinLen uint32, minLen int, cutoff int)
	DisplayLongMinute()
	DisplayNewSecond()
}

// InputProcessor is an optional Sink capability: a mode that can request the receiver loop
// stop, mirroring the upstream's process_input hook.
type InputProcessor interface {
	ProcessInput(bitPos int) (quit bool)
}

// SetclockResultProcessor is an optional Sink capability: a mode that wants to react to the
// outcome of a setclock attempt, mirroring the upstream's process_setclock_result hook.
type SetclockResultProcessor interface {
	ProcessSetclockResult(settime bool, settimeOK bool, bitPos int)
}

// isSpaceBit reports whether bitPos is one of the positions where the console display inserts
// a visual gap between NPL time-code fields, per input.c's is_space_bit.
func isSpaceBit(bitPos int) bool {
	switch bitPos {
	case 1, 9, 17, 25, 30, 36, 39, 45, 52:
		return true
	default:
		return false
	}
}

// Console is a Sink that prints a running transcript of bits and decoded minutes to an
// io.Writer, grounded on nplpi-analyze.c's display_bit/display_time/display_minute/
// display_long_minute.
type Console struct {
	W io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console { return &Console{W: w} }

func (c *Console) DisplayBit(res pulse.Result, bitPos int) {
	if isSpaceBit(bitPos) {
		fmt.Fprint(c.W, " ")
	}
	switch {
	case res.HW == pulse.HWReceiveOnly:
		fmt.Fprint(c.W, "r")
	case res.HW == pulse.HWTransmit:
		fmt.Fprint(c.W, "x")
	case res.HW == pulse.HWRandom:
		fmt.Fprint(c.W, "#")
	case res.Symbol == pulse.None:
		fmt.Fprint(c.W, "_")
	default:
		fmt.Fprintf(c.W, "%d", res.Symbol.SlotValue())
	}
}

// dstLabel mirrors display_time's "summer"/"winter"/"?     " rendering of isdst.
func dstLabel(isdst int) string {
	switch isdst {
	case calendar.DSTSummer:
		return "summer"
	case calendar.DSTWinter:
		return "winter"
	default:
		return "?     "
	}
}

func (c *Console) DisplayTime(dt decode.Result, t calendar.Time) {
	fmt.Fprintf(c.W, "%s %04d-%02d-%02d %s %02d:%02d\n",
		dstLabel(t.IsDST), t.Year, t.Month, t.MDay, calendar.WeekdayNames[t.WDay], t.Hour, t.Minute)

	switch dt.MinuteLength {
	case decode.LengthLong:
		fmt.Fprintln(c.W, "Minute too long")
	case decode.LengthShort:
		fmt.Fprintln(c.W, "Minute too short")
	}
	switch dt.DSTStatus {
	case decode.DSTJump:
		fmt.Fprintln(c.W, "Time offset jump (ignored)")
	case decode.DSTDone:
		fmt.Fprintln(c.W, "Time offset changed")
	}

	fieldLine(c.W, "Minute", dt.MinuteStatus)
	fieldLine(c.W, "Hour", dt.HourStatus)
	if dt.MDayStatus == decode.FieldParity {
		fmt.Fprintln(c.W, "Date parity error")
	}
	switch dt.WDayStatus {
	case decode.FieldBCD:
		fmt.Fprintln(c.W, "Day-of-week value error")
	case decode.FieldJump:
		fmt.Fprintln(c.W, "Day-of-week value jump")
	}
	switch dt.MDayStatus {
	case decode.FieldBCD:
		fmt.Fprintln(c.W, "Day-of-month value error")
	case decode.FieldJump:
		fmt.Fprintln(c.W, "Day-of-month value jump")
	}
	switch dt.MonthStatus {
	case decode.FieldBCD:
		fmt.Fprintln(c.W, "Month value error")
	case decode.FieldJump:
		fmt.Fprintln(c.W, "Month value jump")
	}
	switch dt.YearStatus {
	case decode.FieldBCD:
		fmt.Fprintln(c.W, "Year value error")
	case decode.FieldJump:
		fmt.Fprintln(c.W, "Year value jump")
	}
	if !dt.Bit0OK {
		fmt.Fprintln(c.W, "Minute marker error")
	}
	if dt.DSTAnnounce {
		fmt.Fprintln(c.W, "Time offset change announced")
	}
	switch dt.LeapStatus {
	case decode.LeapDone:
		fmt.Fprintln(c.W, "Leap second processed")
	case decode.LeapOne:
		fmt.Fprintln(c.W, "Leap second processed with value 1 instead of 0")
	}
	fmt.Fprintln(c.W)
}

// fieldLine renders the "<name> parity/value error/jump" lines shared by the minute and hour
// fields (the only two fields with a jump AND a parity-error message in the upstream output).
func fieldLine(w io.Writer, name string, s decode.FieldStatus) {
	switch s {
	case decode.FieldParity:
		fmt.Fprintf(w, "%s parity error\n", name)
	case decode.FieldBCD:
		fmt.Fprintf(w, "%s value error\n", name)
	case decode.FieldJump:
		fmt.Fprintf(w, "%s value jump\n", name)
	}
}

func (c *Console) DisplayMinute(accMinLen uint32, minLen int, cutoff int) {
	fmt.Fprintf(c.W, " (%d) %d ", accMinLen, minLen)
	if cutoff == -1 {
		fmt.Fprintln(c.W, "?")
		return
	}
	fmt.Fprintf(c.W, "%6.4f\n", float64(cutoff)/1e4)
}

func (c *Console) DisplayLongMinute() { fmt.Fprint(c.W, " L ") }

func (c *Console) DisplayNewSecond() {}

var _ Sink = (*Console)(nil)

// AnalyzeSink is the Sink used by the offline capture-log analyzer: it renders exactly like
// Console and adds a Quit flag that ProcessInput reports. cmd/nplpi-analyze's replay loop does
// not consult ProcessInput or Quit; it stops only at the end of the capture log.
type AnalyzeSink struct {
	*Console
	Quit bool
}

// NewAnalyzeSink returns an AnalyzeSink writing to w.
func NewAnalyzeSink(w io.Writer) *AnalyzeSink {
	return &AnalyzeSink{Console: NewConsole(w)}
}

// ProcessInput reports the Quit flag a caller can set externally (e.g. on a malformed
// capture-log token), mirroring nplpi-analyze.c's reliance on mainloop's quit handling even
// though the file-replay CLI never actually sets it from stdin.
func (a *AnalyzeSink) ProcessInput(bitPos int) bool { return a.Quit }

var _ Sink = (*AnalyzeSink)(nil)
var _ InputProcessor = (*AnalyzeSink)(nil)
