// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package pulse implements the two hardest-to-get-right stages of the decoder: sampling the
// GPIO line at (approximately) the configured frequency while adapting to the sender's real
// clock rate, and classifying each second's sample into an A/B symbol. The two are combined
// here, as they are in the original decoder, because the symbol classification needs the raw
// sample timings CollectPulses produces and because a split '01' symbol requires re-entering
// the sampler mid-second.
package pulse

// Micro is a value scaled by 1e6, used throughout for RealFreq, Bit0Width, Bit59Width, and
// len100ms so that classification can be done with pure 64-bit integer comparisons instead of
// floating point division. See decode_time.h/input.c in the upstream nplpi project for the
// rationale; the scale factor is never "unwrapped" into a float anywhere in this package.
type Micro int64

// Symbol is a per-second decoded value.
type Symbol int

const (
	None Symbol = iota
	AB00
	AB10
	AB01
	AB11
	BeginMinute
)

func (s Symbol) String() string {
	switch s {
	case AB00:
		return "00"
	case AB10:
		return "10"
	case AB01:
		return "01"
	case AB11:
		return "11"
	case BeginMinute:
		return "begin-of-minute"
	default:
		return "none"
	}
}

// SlotValue is the integer written into the minute buffer for this symbol, matching the
// upstream encoding (0,1,2,3,4); None does not have a slot value of its own, the caller
// retains whatever was there before.
func (s Symbol) SlotValue() int {
	switch s {
	case AB00:
		return 0
	case AB10:
		return 1
	case AB01:
		return 2
	case AB11:
		return 3
	case BeginMinute:
		return 4
	default:
		return -1
	}
}

// HWStatus classifies what the receiving hardware appears to be doing this second.
type HWStatus int

const (
	HWOk HWStatus = iota
	HWReceiveOnly
	HWTransmit
	HWRandom
)

func (h HWStatus) String() string {
	switch h {
	case HWReceiveOnly:
		return "receive-only"
	case HWTransmit:
		return "transmit"
	case HWRandom:
		return "random"
	default:
		return "ok"
	}
}

// Timing is the per-receiver bit-timing state, persistent across seconds.
type Timing struct {
	RealFreq    Micro // sender's apparent sample rate, scaled by 1e6 of nominal Freq
	Bit0Width   Micro // running estimate of the begin-of-minute low-portion duration
	Bit59Width  Micro // running estimate of a '00' pulse's low-portion duration
	FreqReset   bool  // set when RealFreq was just reset this second
	BitlenReset bool  // set when Bit0Width/Bit59Width were just reset this second
}

// Reset reinitializes the timing state to the defaults for a nominal sample rate of freq Hz.
func (t *Timing) Reset(freq uint) {
	t.RealFreq = Micro(freq) * 1_000_000
	t.Bit0Width = t.RealFreq / 2
	t.Bit59Width = t.RealFreq / 10
}

// len100ms is the expected duration of a ~100ms low period, in the same Micro*sample-count
// scale as RealFreq*t, derived from the current bit-width estimates.
func (t Timing) len100ms() Micro {
	return t.Bit0Width/10 + t.Bit59Width/2
}

// Sink receives the raw capture-log characters pulse produces: the per-second symbol/status
// character, the reset markers, and the end-of-minute accumulated-length marker. It is the
// seam between this package and capturelog, kept narrow so pulse never needs to import
// capturelog's file/format concerns.
type Sink interface {
	WriteByte(b byte) error
	WriteAccMinLen(ms uint32) error
}

// Result is what one call to GetBit produces: the classified symbol, the hardware status,
// whether a hard I/O error occurred, and the raw sample/low counts for diagnostics.
type Result struct {
	Symbol  Symbol
	HW      HWStatus
	BadIO   bool
	T       int64 // samples elapsed this second
	TLow    int64 // samples the line was low (active) this second
	OutChar byte  // capture-log character for this second
}
