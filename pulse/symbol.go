// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package pulse

// Decoder owns the per-receiver bit-timing state and drives the sampler once per second,
// classifying the result into a Symbol and adapting RealFreq/Bit0Width/Bit59Width as it goes.
// It corresponds to "get_bit" in the upstream decoder: CollectPulses plus the classification
// table of spec.md §4.3.
type Decoder struct {
	Sampler   *Sampler
	Timing    Timing
	AccMinLen uint32 // accumulated minute length in ms, reset by the caller at minute boundaries

	// initBit tracks the 2->1->0 countdown mirroring mainloop's init_min handoff: 2 until the
	// first full second has been sampled successfully, 1 for the second one, 0 once steady
	// state is reached and width adaptation runs (frequency adaptation does not wait for it).
	initBit int
}

// NewDecoder returns a Decoder with its timing state reset to the defaults for the sampler's
// nominal frequency.
func NewDecoder(s *Sampler) *Decoder {
	d := &Decoder{Sampler: s, initBit: 2}
	d.Timing.Reset(s.Freq)
	return d
}

// InitBit reports the sampler-local init phase: 2 before the first second sampled without an
// I/O error, 1 after it, and 0 from the following such second on.
func (d *Decoder) InitBit() int { return d.initBit }

// GetBit runs one full second of sampling and classification, writing the resulting
// capture-log character to sink, preceded by any reset markers this second produced and, for a
// begin-of-minute symbol, by the "a<AccMinLen>" line that ends the previous minute.
// bitPos59 tells the decoder whether this second's symbol lands in buffer slot 59, needed to
// know whether a '00' symbol should feed the Bit59Width estimator. frameGarbled tells it whether
// the minute framer's marker is currently Late or TooLong -- i.e. this minute already overran or
// arrived late -- mirroring get_bit_live's own gate on gb_res.marker, which suppresses width
// adaptation during exactly those two states and allows it otherwise (none or a fresh minute
// marker). The caller reads this off the framer before handing it the classified symbol.
func (d *Decoder) GetBit(bitPos59, frameGarbled bool, sink Sink) Result {
	d.Timing.FreqReset = false
	d.Timing.BitlenReset = false

	if d.initBit == 2 {
		d.Timing.Reset(d.Sampler.Freq)
	}
	len100ms := d.Timing.len100ms()

	adjFreq := true
	t, tlow, bad, hw := d.Sampler.CollectPulses(0, &d.Timing, &adjFreq, sink)

	var res Result
	res.T, res.TLow, res.BadIO, res.HW = t, tlow, bad, hw

	if !bad && hw == HWOk {
		res.Symbol, t = d.classify(t, tlow, len100ms, sink, &adjFreq)
	} else {
		res.Symbol = None
	}
	res.T = t

	if !bad {
		switch {
		case d.initBit == 2:
			// CollectPulses just returned having seen its first end-of-second edge: that's
			// the handshake get_bit_live uses to arm the 2->1->0 countdown.
			d.initBit = 1
		case d.initBit == 1:
			d.initBit = 0
		case hw == HWOk && !frameGarbled:
			d.adapt(bitPos59, res.Symbol, tlow, &adjFreq, sink)
		}
	}

	if adjFreq {
		d.Timing.RealFreq += Micro(t*1_000_000-int64(d.Timing.RealFreq)) / 20
	}
	d.AccMinLen += uint32(1_000_000 * t / (int64(d.Timing.RealFreq) / 1000))

	res.OutChar = d.outChar(bad, hw, res.Symbol)
	if sink != nil {
		if res.Symbol == BeginMinute {
			// End of the previous minute: its accumulated length goes right after its final
			// symbol, ahead of the new minute's '4'.
			_ = sink.WriteAccMinLen(d.AccMinLen)
		}
		_ = sink.WriteByte(res.OutChar)
	}
	return res
}

// classify implements the spec.md §4.3 classification table. It may recurse into
// CollectPulses once, for a split '01' symbol, in which case it returns the updated t.
func (d *Decoder) classify(t, tlow int64, len100ms Micro, sink Sink, adjFreq *bool) (Symbol, int64) {
	realFreq := int64(d.Timing.RealFreq)
	lm := int64(len100ms)
	longEnough := t >= realFreq/2_500_000

	switch {
	case 2*tlow*realFreq < 3*lm*t:
		return AB00, t
	case 2*tlow*realFreq < 5*lm*t:
		return AB10, t
	case 2*tlow*realFreq < 7*lm*t:
		if longEnough {
			return AB11, t
		}
		t2, tlow2, bad, hw := d.Sampler.CollectPulses(t, &d.Timing, adjFreq, sink)
		_ = tlow2
		_, _ = bad, hw
		return AB01, t2
	case tlow*realFreq < 6*lm*t:
		if longEnough {
			return BeginMinute, t
		}
		t2, _, _, _ := d.Sampler.CollectPulses(t, &d.Timing, adjFreq, sink)
		return AB01, t2
	default:
		*adjFreq = false
		return None, t
	}
}

// adapt updates Bit59Width (on a '00' symbol landing in slot 59) or Bit0Width (on a
// begin-of-minute symbol), then sanity-checks the pair and resets both on violation, exactly
// per spec.md §3's sanity gates.
func (d *Decoder) adapt(bitPos59 bool, sym Symbol, tlow int64, adjFreq *bool, sink Sink) {
	t := &d.Timing
	if bitPos59 && sym == AB00 {
		t.Bit59Width += Micro(tlow*1_000_000-int64(t.Bit59Width)) / 2
	}
	if sym == BeginMinute {
		t.Bit0Width += Micro(tlow*1_000_000-int64(t.Bit0Width)) / 2
	}

	avg := (t.Bit0Width - t.Bit59Width) / 2
	violated := false
	if 4*t.Bit0Width < t.Bit59Width*15 || 2*t.Bit0Width > t.Bit59Width*15 {
		violated = true
	}
	if t.Bit0Width+avg < t.RealFreq/2 || t.Bit0Width-avg > t.RealFreq/2 {
		violated = true
	}
	if t.Bit59Width+avg < t.RealFreq/10 {
		violated = true
	}
	if violated {
		resetBitlen(t)
		*adjFreq = false
		if sink != nil {
			_ = sink.WriteByte('!')
		}
	}
}

// outChar is the capture-log alphabet character for this second, per spec.md §6.
func (d *Decoder) outChar(bad bool, hw HWStatus, sym Symbol) byte {
	switch {
	case bad:
		return '*'
	case hw == HWReceiveOnly:
		return 'r'
	case hw == HWTransmit:
		return 'x'
	case hw == HWRandom:
		return '#'
	case sym == None:
		return '_'
	case sym == AB00:
		return '0'
	case sym == AB10:
		return '1'
	case sym == AB01:
		return '2'
	case sym == AB11:
		return '3'
	case sym == BeginMinute:
		return '4'
	default:
		return '?'
	}
}
