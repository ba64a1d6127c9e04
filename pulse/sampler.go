// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package pulse

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tve/npltime/gpioline"
)

// Sampler runs the inner, sub-second sampling loop: it reads the GPIO line at close to Freq
// samples per second, low-pass filters it, and locates the Schmitt-trigger transitions that
// mark the end of the active (low) part of the second and the end of the second itself. It
// adapts its own pacing to RealFreq so that scheduler jitter does not accumulate.
type Sampler struct {
	Freq  uint             // nominal samples per second, from config
	Clock clockwork.Clock  // wall clock used for pacing; clockwork.NewRealClock() in production
	Src   gpioline.Source  // GPIO collaborator
	Cfg   gpioline.Config  // polarity/pin configuration, used only via Cfg.Normalize
}

// lowPassGain is `a` from the exponential low-pass filter: reach 50% after Freq/20 samples.
func lowPassGain(freq uint) int64 {
	// a = 1e9 * (1 - 2^(-20/freq)), computed with a single floating-point exp2 call; freq is
	// in a narrow, known range (10..120000), so this one float computation matches the
	// original decoder's own use of exp2 for the same constant.
	return int64(1e9 * (1 - math.Exp2(-20.0/float64(freq))))
}

// CollectPulses runs the sub-second sampling loop starting at sample index start (0 for a
// fresh second, or mid-second when re-entered to read the remainder of a split '01' symbol).
// It returns the ending sample index t, the index tlow at which the active (low) part of the
// second ended, whether a hard I/O error occurred, and the hardware status if a ~1.5s timeout
// fired without the expected transitions (indicating receive-only, transmitter-held, or
// random-noise conditions on the line). A loop that reaches Freq samples without the
// end-of-second transition also returns HWRandom and resets RealFreq to nominal.
func (s *Sampler) CollectPulses(start int64, timing *Timing, adjFreq *bool, sink Sink) (t, tlow int64, bad bool, hw HWStatus) {
	a := lowPassGain(s.Freq)
	sec2 := int64(1_000_000_000) / (int64(s.Freq) * int64(s.Freq))

	var y int64 = 1_000_000_000
	stv := 1
	tlow = -1
	tlast0 := int64(-1)

	for t = start; t < int64(s.Freq); t++ {
		iterStart := s.Clock.Now()

		lvl, err := s.Src.Read()
		if err != nil {
			bad = true
			return t, tlow, bad, hw
		}
		p := int64(0)
		if s.Cfg.Normalize(lvl) {
			p = 1
		}

		if y >= 0 && y < a/2 {
			tlast0 = t
		}
		y += a * (p*1_000_000_000 - y) / 1_000_000_000

		// Guard against algorithm collapse during e.g. a thunderstorm or scheduler abuse.
		if timing.RealFreq <= Micro(s.Freq)*500_000 || timing.RealFreq > Micro(s.Freq)*1_000_000 {
			resetFrequency(timing, s.Freq, sink)
			*adjFreq = false
		}

		// 1.5 seconds' worth of samples at the currently estimated real rate: RealFreq
		// is scaled by 1e6, so unscale it back to a sample count before comparing to t.
		if timeoutThreshold := int64(timing.RealFreq) * 3 / (2 * 1_000_000); t > timeoutThreshold {
			switch {
			case tlow <= int64(s.Freq)/20:
				hw = HWReceiveOnly
			case tlow*100/t >= 99:
				hw = HWTransmit
			default:
				hw = HWRandom
			}
			*adjFreq = false
			return t, tlow, bad, hw
		}

		// Schmitt trigger with hysteresis at the 50% mark.
		if y < 500_000_000 && stv == 1 {
			y = 0
			stv = 0
			tlow = t
		}
		if y > 500_000_000 && stv == 0 {
			return t, tlow, bad, hw // start of a new second
		}

		twait := sec2 * int64(timing.RealFreq) / 1_000_000
		twait -= s.Clock.Now().Sub(iterStart).Nanoseconds()
		if twait > 0 {
			s.Clock.Sleep(time.Duration(twait))
		}
	}

	// Ran out the full second without a transition: still a valid (if unusual) outcome.
	if hw == HWOk {
		hw = HWRandom
	}
	resetFrequency(timing, s.Freq, sink)
	*adjFreq = false
	_ = tlast0 // retained for parity with upstream's bit.tlast0, not otherwise consumed here
	return t, tlow, bad, hw
}

// resetFrequency reinitializes RealFreq to its nominal value, writing the capture-log marker
// that records which sanity bound was violated ('<' too low, '>' too high), per input.c's
// reset_frequency.
func resetFrequency(timing *Timing, freq uint, sink Sink) {
	if sink != nil {
		switch {
		case timing.RealFreq <= Micro(freq)*500_000:
			_ = sink.WriteByte('<')
		case timing.RealFreq > Micro(freq)*1_000_000:
			_ = sink.WriteByte('>')
		}
	}
	timing.RealFreq = Micro(freq) * 1_000_000
	timing.FreqReset = true
}

func resetBitlen(timing *Timing) {
	timing.Bit0Width = timing.RealFreq / 2
	timing.Bit59Width = timing.RealFreq / 10
	timing.BitlenReset = true
}
