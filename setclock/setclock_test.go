// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package setclock

import (
	"errors"
	"testing"

	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/frame"
)

type fakeSetter struct {
	called bool
	err    error
}

func (f *fakeSetter) Set(year, month, mday, hour, minute int) error {
	f.called = true
	return f.err
}

func cleanResult() decode.Result {
	return decode.Result{
		Bit0OK: true, Bit59OK: true,
		MinuteLength: decode.LengthOK,
	}
}

func TestSafeToSet_requiresInitMinZero(t *testing.T) {
	if SafeToSet(1, cleanResult(), frame.Minute) {
		t.Fatalf("want unsafe while init_min > 0")
	}
}

func TestSafeToSet_requiresMinuteMarker(t *testing.T) {
	if SafeToSet(0, cleanResult(), frame.None) {
		t.Fatalf("want unsafe without a minute marker")
	}
	if !SafeToSet(0, cleanResult(), frame.Late) {
		t.Fatalf("want safe with a late minute marker")
	}
}

func TestSafeToSet_rejectsBadBitMarkers(t *testing.T) {
	r := cleanResult()
	r.Bit0OK = false
	if SafeToSet(0, r, frame.Minute) {
		t.Fatalf("want unsafe with bad bit0")
	}
}

func TestSafeToSet_rejectsBadMinuteLength(t *testing.T) {
	r := cleanResult()
	r.MinuteLength = decode.LengthShort
	if SafeToSet(0, r, frame.Minute) {
		t.Fatalf("want unsafe with a short minute")
	}
}

func TestSafeToSet_rejectsFieldError(t *testing.T) {
	r := cleanResult()
	r.YearStatus = decode.FieldBCD
	if SafeToSet(0, r, frame.Minute) {
		t.Fatalf("want unsafe with a bad year field")
	}
}

func TestSafeToSet_acceptsJumpedField(t *testing.T) {
	r := cleanResult()
	r.HourStatus = decode.FieldJump
	if !SafeToSet(0, r, frame.Minute) {
		t.Fatalf("want safe with a merely jumped field")
	}
}

func TestAttempt_unsafeSkipsSetter(t *testing.T) {
	fs := &fakeSetter{}
	res := Attempt(fs, 1, cleanResult(), frame.Minute, 2026, 7, 31, 12, 0)
	if res != ResultUnsafe {
		t.Fatalf("Result = %v, want ResultUnsafe", res)
	}
	if fs.called {
		t.Fatalf("Set should not be called when unsafe")
	}
}

func TestAttempt_ok(t *testing.T) {
	fs := &fakeSetter{}
	res := Attempt(fs, 0, cleanResult(), frame.Minute, 2026, 7, 31, 12, 0)
	if res != ResultOK {
		t.Fatalf("Result = %v, want ResultOK", res)
	}
	if !fs.called {
		t.Fatalf("Set should have been called")
	}
}

func TestAttempt_failed(t *testing.T) {
	fs := &fakeSetter{err: errors.New("boom")}
	res := Attempt(fs, 0, cleanResult(), frame.Minute, 2026, 7, 31, 12, 0)
	if res != ResultFailed {
		t.Fatalf("Result = %v, want ResultFailed", res)
	}
}
