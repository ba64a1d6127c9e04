// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package setclock is the optional collaborator that steps the host kernel clock once a
// minute has been fully decoded, mirroring the upstream decoder's setclock()/setclock_ok()
// pair (mainloop.c).
package setclock

import (
	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/frame"
)

// Result is the outcome of an attempted clock set, mirroring mainloop.c's ML_result.settime_result.
type Result int

const (
	// ResultUnset means no clock-set was attempted this minute.
	ResultUnset Result = iota
	// ResultOK means the kernel clock was stepped successfully.
	ResultOK
	// ResultUnsafe means setclock_ok rejected this minute as not trustworthy enough to act on.
	ResultUnsafe
	// ResultFailed means the clock-set system call itself failed.
	ResultFailed
)

// Setter steps the host clock to the given broken-down civil time (seconds are always set to
// zero, matching the broadcast's minute-granularity).
type Setter interface {
	Set(year, month, mday, hour, minute int) error
}

// SafeToSet mirrors setclock_ok: a minute is only trusted to set the clock once init_min has
// counted down to zero (two clean minutes already observed) and this minute itself decoded
// with a valid begin-of-minute marker and no field errors serious enough to leave the time
// record incomplete.
func SafeToSet(initMin int, dt decode.Result, marker frame.Marker) bool {
	if initMin != 0 {
		return false
	}
	if marker != frame.Minute && marker != frame.Late {
		return false
	}
	if !dt.Bit0OK || !dt.Bit59OK {
		return false
	}
	if dt.MinuteLength != decode.LengthOK {
		return false
	}
	for _, s := range []decode.FieldStatus{dt.MinuteStatus, dt.HourStatus, dt.MDayStatus, dt.WDayStatus, dt.MonthStatus, dt.YearStatus} {
		if s != decode.FieldOK && s != decode.FieldJump {
			return false
		}
	}
	return true
}

// Attempt runs SafeToSet and, if it passes, calls s.Set; it returns the Result the caller
// should report through display.SetclockResultProcessor.
func Attempt(s Setter, initMin int, dt decode.Result, marker frame.Marker, year, month, mday, hour, minute int) Result {
	if !SafeToSet(initMin, dt, marker) {
		return ResultUnsafe
	}
	if err := s.Set(year, month, mday, hour, minute); err != nil {
		return ResultFailed
	}
	return ResultOK
}
