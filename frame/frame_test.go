// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package frame

import (
	"testing"

	"github.com/tve/npltime/pulse"
)

func TestState_SetSymbol_recordsSlotValue(t *testing.T) {
	var s State
	s.BitPos = 5
	s.SetSymbol(pulse.AB11)
	if s.Buffer[5] != 3 {
		t.Fatalf("Buffer[5] = %d, want 3", s.Buffer[5])
	}
}

func TestState_SetSymbol_none_retainsOldValue(t *testing.T) {
	var s State
	s.BitPos = 5
	s.Buffer[5] = 7
	s.SetSymbol(pulse.None)
	if s.Buffer[5] != 7 {
		t.Fatalf("Buffer[5] = %d, want unchanged 7", s.Buffer[5])
	}
}

func TestState_SetSymbol_beginMinute_resetsBitPos(t *testing.T) {
	var s State
	s.BitPos = 40
	s.SetSymbol(pulse.BeginMinute)
	if s.BitPos != 0 {
		t.Fatalf("BitPos = %d, want 0", s.BitPos)
	}
	if s.Marker != Minute {
		t.Fatalf("Marker = %v, want Minute", s.Marker)
	}
	if s.Buffer[0] != 4 {
		t.Fatalf("Buffer[0] = %d, want 4", s.Buffer[0])
	}
}

func TestState_NextBit_ordinaryAdvance(t *testing.T) {
	var s State
	s.BitPos = 10
	m := s.NextBit()
	if m != None {
		t.Fatalf("marker = %v, want None", m)
	}
	if s.BitPos != 11 {
		t.Fatalf("BitPos = %d, want 11", s.BitPos)
	}
	if s.OldBitPos != 10 {
		t.Fatalf("OldBitPos = %d, want 10", s.OldBitPos)
	}
}

func TestState_NextBit_minuteMarkerResetsToOne(t *testing.T) {
	var s State
	s.BitPos = 0
	s.Marker = Minute
	m := s.NextBit()
	if m != Minute {
		t.Fatalf("marker = %v, want Minute: NextBit must report the boundary it just acted on, the way next_bit() leaves gb_res.marker for its caller", m)
	}
	if s.BitPos != 1 {
		t.Fatalf("BitPos = %d, want 1", s.BitPos)
	}
}

func TestState_SetSymbol_clearsStaleMinuteMarker(t *testing.T) {
	// Mirrors set_new_state's clearing of gb_res.marker (except toolong/late) at the start of
	// the following second, so a Minute/Late marker is only ever reported once.
	var s State
	s.Marker = Minute
	s.SetSymbol(pulse.AB00)
	if s.Marker != None {
		t.Fatalf("Marker = %v, want None: a stale Minute marker must not force BitPos to 1 a second time", s.Marker)
	}
}

func TestState_SetSymbol_preservesTooLongAndLate(t *testing.T) {
	var s State
	s.Marker = TooLong
	s.SetSymbol(pulse.AB00)
	if s.Marker != TooLong {
		t.Fatalf("Marker = %v, want TooLong preserved so NextBit can still observe and clear it", s.Marker)
	}

	s.Marker = Late
	s.SetSymbol(pulse.AB00)
	if s.Marker != Late {
		t.Fatalf("Marker = %v, want Late preserved so NextBit can still revert it to Minute", s.Marker)
	}
}

func TestState_SetSymbol_beginMinute_reportsFinishedMinuteLength(t *testing.T) {
	// A begin-of-minute symbol's own SetSymbol call resets BitPos to 0; OldBitPos must still
	// reflect the just-finished minute's length (59 here), not that reset value, once NextBit
	// reports the Minute marker -- this is what minLen is computed from at a minute boundary.
	var s State
	s.BitPos = 59
	s.SetSymbol(pulse.BeginMinute)
	m := s.NextBit()
	if m != Minute {
		t.Fatalf("marker = %v, want Minute", m)
	}
	if s.OldBitPos != 59 {
		t.Fatalf("OldBitPos = %d, want 59 (the finished minute's length, not the reset BitPos)", s.OldBitPos)
	}
}

func TestState_NextBit_overflowSetsTooLong(t *testing.T) {
	var s State
	s.BitPos = BufLen - 1 // 60
	m := s.NextBit()
	if m != TooLong {
		t.Fatalf("marker = %v, want TooLong", m)
	}
	if s.BitPos != 0 {
		t.Fatalf("BitPos = %d, want 0 after overflow wrap", s.BitPos)
	}
	// Invariant P1: 0 <= BitPos <= BufLen-1 always holds after NextBit.
	if s.BitPos < 0 || s.BitPos > BufLen-1 {
		t.Fatalf("BitPos out of range: %d", s.BitPos)
	}
}

func TestState_NextBit_tooLongClearsOnNextCall(t *testing.T) {
	var s State
	s.BitPos = BufLen - 1
	s.NextBit() // -> TooLong, BitPos=0
	m := s.NextBit()
	if m != None {
		t.Fatalf("marker = %v, want None once it fits again", m)
	}
}

func TestState_NextBit_lateAfterTooLong(t *testing.T) {
	var s State
	s.BitPos = BufLen - 1
	s.NextBit() // -> TooLong, BitPos wraps to 0
	s.Marker = Late
	m := s.NextBit()
	if m != Minute {
		t.Fatalf("marker = %v, want Minute (late reverts to minute)", m)
	}
	if s.BitPos != 1 {
		t.Fatalf("BitPos = %d, want 1", s.BitPos)
	}
}

func TestState_NextBit_neverOverflowsPastOneTooLong(t *testing.T) {
	// Running NextBit for three buffer laps (3*BufLen calls) without ever seeing a Minute marker must fire
	// TooLong exactly once per lap of the buffer, never letting BitPos escape [0, BufLen-1].
	var s State
	tooLongCount := 0
	for i := 0; i < BufLen*3; i++ {
		if m := s.NextBit(); m == TooLong {
			tooLongCount++
		}
		if s.BitPos < 0 || s.BitPos > BufLen-1 {
			t.Fatalf("iteration %d: BitPos out of range: %d", i, s.BitPos)
		}
	}
	if tooLongCount != 3 {
		t.Fatalf("tooLongCount = %d, want 3 (once per lap)", tooLongCount)
	}
}

func TestState_SetCutoff(t *testing.T) {
	var s State
	s.SetCutoff(100, pulse.Micro(100)*1_000_000)
	want := int(100 * 1_000_000 / (int64(pulse.Micro(100)*1_000_000) / 10_000))
	if s.Cutoff != want {
		t.Fatalf("Cutoff = %d, want %d", s.Cutoff, want)
	}
}

func TestState_ClearCutoff(t *testing.T) {
	var s State
	s.Cutoff = 42
	s.ClearCutoff()
	if s.Cutoff != -1 {
		t.Fatalf("Cutoff = %d, want -1", s.Cutoff)
	}
}

func TestState_SkipSymbol_clearsStaleMinuteMarker(t *testing.T) {
	var s State
	s.Marker = Minute
	s.SkipSymbol()
	if s.Marker != None {
		t.Fatalf("Marker = %v, want None: an acc_minlen tick clears a stale marker same as SetSymbol", s.Marker)
	}
}

func TestState_SkipBit_doesNotAdvanceBitPos(t *testing.T) {
	var s State
	s.BitPos = 10
	m := s.SkipBit()
	if m != None {
		t.Fatalf("marker = %v, want None", m)
	}
	if s.BitPos != 10 {
		t.Fatalf("BitPos = %d, want unchanged 10 (a skipped tick samples no bit)", s.BitPos)
	}
	if s.OldBitPos != 10 {
		t.Fatalf("OldBitPos = %d, want 10", s.OldBitPos)
	}
}

func TestState_SkipBit_minuteMarkerStillForcesReset(t *testing.T) {
	var s State
	s.BitPos = 0
	s.Marker = Minute
	m := s.SkipBit()
	if s.BitPos != 1 {
		t.Fatalf("BitPos = %d, want 1: a pending Minute marker forces the reset even on a skipped tick", s.BitPos)
	}
	if m != Minute {
		t.Fatalf("marker = %v, want Minute reported on the tick it fires", m)
	}
}

func TestMarker_String(t *testing.T) {
	cases := map[Marker]string{
		None:    "none",
		Minute:  "minute",
		Late:    "late",
		TooLong: "too-long",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Marker(%d).String() = %q, want %q", m, got, want)
		}
	}
}
