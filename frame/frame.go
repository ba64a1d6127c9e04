// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package frame turns the one-symbol-per-second stream the pulse package produces into
// 61-slot minute buffers: it tracks the bit position within the minute, recognizes the
// begin-of-minute marker, and flags minutes that ran long or arrived late.
package frame

import "github.com/tve/npltime/pulse"

// BufLen is the number of slots in a minute buffer, bit 0 through bit 60 inclusive; slot 60
// only ever gets used when a leap second pushes a minute out to 61 bits.
const BufLen = 61

// Marker classifies what just happened to the bit position.
type Marker int

const (
	// None is the ordinary case: no minute boundary seen this second.
	None Marker = iota
	// Minute fires the second a begin-of-minute symbol is recognized.
	Minute
	// Late marks a begin-of-minute symbol that follows a buffer overflow (TooLong). SetSymbol
	// does not produce it: a begin-of-minute symbol always arms Minute. A Late marker that is
	// set is handled like Minute by NextBit/SkipBit, which turn it into Minute.
	Late
	// TooLong fires when 61 bits have been accumulated without seeing a begin-of-minute
	// marker.
	TooLong
)

func (m Marker) String() string {
	switch m {
	case Minute:
		return "minute"
	case Late:
		return "late"
	case TooLong:
		return "too-long"
	default:
		return "none"
	}
}

// State is the minute framer's persistent state: the bit buffer, the current bit position,
// and the marker produced by the most recent NextBit call.
type State struct {
	Buffer    [BufLen]int
	BitPos    int
	OldBitPos int // bit position at the start of this second (captured by SetSymbol/SkipSymbol before a begin-of-minute reset); at a minute boundary, the finished minute's length
	Marker    Marker
	Cutoff    int // scaled threshold for accepting a late bit 0 as really belonging to this minute
}

// clearStaleMarker drops the marker left over from the previous second (anything but TooLong
// or Late, which must survive one more tick to be observed by NextBit/SkipBit), mirroring
// set_new_state's unconditional clearing at the top of every per-second read -- including a
// capture-log "a<ms>" line, which reports elapsed time without a sampled symbol but still runs
// set_new_state in the upstream decoder.
func (s *State) clearStaleMarker() {
	if s.Marker != TooLong && s.Marker != Late {
		s.Marker = None
	}
}

// SetSymbol starts a new second: it records BitPos as OldBitPos before anything else touches it
// (so a begin-of-minute symbol's BitPos=0 reset below doesn't clobber the just-finished minute's
// length -- mirrors mainloop()'s bitpos = get_bitpos() read right after get_bit() but before
// next_bit() advances it again), clears a stale marker (see clearStaleMarker), then records sym's
// slot value at the current bit position and, for a begin-of-minute symbol, arms the Minute
// marker. It must be called once per second, before NextBit or SkipBit.
func (s *State) SetSymbol(sym pulse.Symbol) {
	s.OldBitPos = s.BitPos
	s.clearStaleMarker()
	if sym == pulse.BeginMinute {
		s.BitPos = 0
		s.Marker = Minute
	}
	if v := sym.SlotValue(); v >= 0 {
		s.Buffer[s.BitPos] = v
	}
}

// SkipSymbol starts a new second that carries no sampled symbol at all, such as a capture-log
// "a<ms>" line: it records OldBitPos and clears a stale marker exactly as SetSymbol does,
// without touching the buffer or BitPos. Call it in place of SetSymbol before SkipBit.
func (s *State) SkipSymbol() {
	s.OldBitPos = s.BitPos
	s.clearStaleMarker()
}

// NextBit advances the bit position for the next second, mirroring the upstream decoder's
// next_bit(): a Minute or Late marker resets the position to 1 (slot 0 was just filled by
// SetSymbol), otherwise the position simply increments. Running past BufLen-1 sets TooLong and
// wraps back to 0; a TooLong marker clears back to None once it no longer overflows, and a
// Late marker (which "cannot happen" in practice, per the upstream comment) reverts to Minute.
// A Minute marker is returned as-is and is left for the following second's SetSymbol to clear,
// exactly like next_bit() leaves gb_res.marker alone and set_new_state does the clearing.
func (s *State) NextBit() Marker { return s.advance(true) }

// SkipBit runs the same marker/cutoff bookkeeping as NextBit without advancing the bit
// position, for a tick that reports elapsed time (a capture-log "a<ms>" line) rather than a
// sampled bit. It mirrors next_bit()'s "else if (!gb_res.skip) bitpos++" suppression: a pending
// Minute or Late marker still forces the position to 1, and TooLong/Late still clear the same
// way, but an ordinary second leaves the position untouched.
func (s *State) SkipBit() Marker { return s.advance(false) }

// advance is the shared bookkeeping behind NextBit and SkipBit; bitAdvance is false only for
// SkipBit's no-bit-sampled tick.
func (s *State) advance(bitAdvance bool) Marker {
	switch s.Marker {
	case Minute, Late:
		// OldBitPos is left as SetSymbol/SkipSymbol captured it: the completed minute's final
		// bit position, read before that call's own BitPos=0 reset for the new minute.
		s.BitPos = 1
	default:
		s.OldBitPos = s.BitPos
		if bitAdvance {
			s.BitPos++
		}
	}
	if s.BitPos == BufLen {
		s.Marker = TooLong
		s.BitPos = 0
		return s.Marker
	}
	switch s.Marker {
	case TooLong:
		s.Marker = None
	case Late:
		s.Marker = Minute
	}
	return s.Marker
}

// ClearCutoff resets Cutoff to "unset" (-1), the value set_new_state's
// `if (!gb_res.skip) cutoff = -1` gives it each second in the upstream decoder. Nothing in this
// module calls it; the receiver and replay loops leave Cutoff as they set it.
func (s *State) ClearCutoff() { s.Cutoff = -1 }

// SetCutoff computes the scaled threshold used to decide whether a delayed bit-0 still
// belongs to the minute that just ended, from the elapsed sample count t and the receiver's
// current real frequency estimate (both already in pulse.Micro's ×1e6 fixed-point scale).
func (s *State) SetCutoff(t int64, realFreq pulse.Micro) {
	s.Cutoff = int(t * 1_000_000 / (int64(realFreq) / 10_000))
}
