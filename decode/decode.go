// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package decode turns a 61-slot minute buffer (frame.State.Buffer) into a calendar.Time,
// validating BCD digits and parity bits along the way and flagging minutes that are too
// short, too long, or whose fields jumped unexpectedly from one minute to the next.
package decode

import (
	"github.com/tve/npltime/calendar"
	"github.com/tve/npltime/frame"
)

// MinuteLength classifies the observed length of a minute against the nominal 59/60/61 bits.
type MinuteLength int

const (
	LengthOK MinuteLength = iota
	LengthShort
	LengthLong
)

func (l MinuteLength) String() string {
	switch l {
	case LengthShort:
		return "short"
	case LengthLong:
		return "long"
	default:
		return "ok"
	}
}

// FieldStatus is the validity state of one decoded field.
type FieldStatus int

const (
	FieldOK FieldStatus = iota
	FieldBCD
	FieldParity
	FieldJump
)

func (s FieldStatus) String() string {
	switch s {
	case FieldBCD:
		return "bcd-error"
	case FieldParity:
		return "parity-error"
	case FieldJump:
		return "jump"
	default:
		return "ok"
	}
}

// DSTState reports what, if anything, happened to the daylight-saving offset this minute.
type DSTState int

const (
	DSTOK DSTState = iota
	DSTJump
	DSTDone
)

// LeapState reports whether a leap second was expected/seen this minute.
type LeapState int

const (
	LeapNone LeapState = iota
	LeapOne
	LeapDone
)

// Result carries every per-minute validity flag alongside the decoded calendar fields.
type Result struct {
	Bit0OK       bool
	Bit59OK      bool
	MinuteLength MinuteLength
	MinuteStatus FieldStatus
	HourStatus   FieldStatus
	MDayStatus   FieldStatus
	WDayStatus   FieldStatus
	MonthStatus  FieldStatus
	YearStatus   FieldStatus
	DSTStatus    DSTState
	LeapStatus   LeapState
	DSTAnnounce  bool
}

// bcdBase1900 are the only centuries a two-digit broadcast year can land in; index matches
// calendar.CenturyOffset's return value.
var bcdBase1900 = [3]int{1900, 2000, 2100}

// Decoder holds the state that must persist across minutes: the DST-announcement vote
// counters and whether the previous minute had a decode error (used to re-arm DST changes
// after a startup glitch clears).
type Decoder struct {
	dstCount     int
	minuteCount  int
	dstAnnounce  bool // persists across minutes, unlike Result which is fresh every call
	olderr       bool
	accPartialMs uint32

	// EnableLeapDST turns on leap-second and DST-change handling. Both are exercised by
	// tests; SPEC_FULL.md's open-questions resolution restores them unconditionally, but the
	// flag is kept so a caller running purely on historical capture logs recorded before a
	// given leap second can disable the check if desired.
	EnableLeapDST bool
}

// NewDecoder returns a Decoder with leap-second and DST handling enabled.
func NewDecoder() *Decoder {
	return &Decoder{EnableLeapDST: true}
}

func getpar(buffer []int, start, stop, parity int) bool {
	par := 0
	for i := start; i <= stop; i++ {
		par += buffer[i] & 1
	}
	par += buffer[parity] >> 1
	return par&1 == 1
}

func getbcd(buffer []int, start, stop int) int {
	mul, val := 1, 0
	for i := stop; i >= start; i-- {
		val += mul * (buffer[i] & 1)
		mul *= 2
		if mul == 16 {
			if val > 9 {
				return 100
			}
			mul = 10
		}
	}
	return val
}

// checkTimeSanity validates the minute length and the two fixed marker bits, returning false
// (error) unless the minute is 59 to 61 bits long with bit 0 at 500ms and bit 59 at
// 100ms; only then are the BCD fields worth decoding.
func (d *Decoder) checkTimeSanity(r *Result, minlen int, buffer []int) bool {
	switch {
	case minlen == -1 || minlen > 61:
		r.MinuteLength = LengthLong
	case minlen < 59:
		r.MinuteLength = LengthShort
	default:
		r.MinuteLength = LengthOK
	}
	r.DSTStatus = DSTOK
	r.Bit0OK = buffer[0] == 4
	r.Bit59OK = buffer[59] == 0
	return r.MinuteLength == LengthOK && r.Bit0OK && r.Bit59OK
}

// increaseOldTime folds accumulated sub-minute timing into whole minutes to advance time,
// combining partial minutes across a split read the way the upstream decoder's
// increase_old_time does. It returns the number of minutes time was moved by; accMinlen is
// unsigned, so that number is never negative and time is never moved backwards.
func (d *Decoder) increaseOldTime(initMin int, accMinlen uint32, dstAnnounce bool, t *calendar.Time) int {
	if accMinlen <= 59000 {
		d.accPartialMs += accMinlen
		if d.accPartialMs >= 60000 {
			accMinlen = d.accPartialMs
			d.accPartialMs %= 60000
		}
	}
	increase := int(accMinlen / 60000)
	if accMinlen >= 60000 {
		d.accPartialMs %= 60000
	}
	if accMinlen%60000 > 59000 {
		increase++
		d.accPartialMs %= 60000
	}

	if initMin < 2 {
		for i := 0; i < increase; i++ {
			*t = calendar.AddMinute(*t, dstAnnounce)
		}
		for i := 0; i > increase; i-- {
			*t = calendar.SubtractMinute(*t, dstAnnounce)
		}
	}
	return increase
}

// fieldErrors tracks, per calculate_date_time's return value, which of the four parity
// groups failed this minute: year-alone, month+mday, weekday, and hour+minute.
type fieldErrors struct {
	year, monthDay, wday, hourMin bool
}

func (e fieldErrors) any() bool { return e.year || e.monthDay || e.wday || e.hourMin }

// calculateDateTime decodes every BCD/parity field from buffer into newTime, comparing
// against the previous time (old) to flag jumps once init_min has passed, and returns which
// parity groups failed.
func (d *Decoder) calculateDateTime(r *Result, initMin int, sanityErr bool, increase int, buffer []int, old calendar.Time, newTime *calendar.Time) fieldErrors {
	var errs fieldErrors
	canStamp := initMin == 2 || increase != 0

	// Year (bits 17-24, parity 54).
	p1 := getpar(buffer, 17, 24, 54)
	year := getbcd(buffer, 17, 24)
	switch {
	case !p1:
		r.YearStatus = FieldParity
	case year > 99:
		r.YearStatus = FieldBCD
		p1 = false
	default:
		r.YearStatus = FieldOK
	}
	if canStamp && p1 && !sanityErr {
		newTime.Year = year // still a two-digit value; CenturyOffset below fills in the century
	}

	// Month (bits 25-29) and day-of-month (bits 30-35), sharing parity bit 55.
	p2 := getpar(buffer, 25, 35, 55)
	month := getbcd(buffer, 25, 29)
	mday := getbcd(buffer, 30, 35)
	if !p2 {
		r.MonthStatus = FieldParity
		r.MDayStatus = FieldParity
	} else {
		if month == 0 || month > 12 {
			r.MonthStatus = FieldBCD
			p2 = false
		} else {
			r.MonthStatus = FieldOK
		}
		if mday == 0 || mday > 31 {
			r.MDayStatus = FieldBCD
			p2 = false
		} else {
			r.MDayStatus = FieldOK
		}
	}
	if canStamp && p2 && !sanityErr {
		newTime.Month = month
		if initMin == 0 && old.Month != newTime.Month {
			r.MonthStatus = FieldJump
		}
		newTime.MDay = mday
		if initMin == 0 && old.MDay != newTime.MDay {
			r.MDayStatus = FieldJump
		}
	}

	// Day-of-week (bits 36-38, parity 56).
	p3 := getpar(buffer, 36, 38, 56)
	wday := getbcd(buffer, 36, 38)
	if !p3 {
		r.WDayStatus = FieldParity
	} else if wday == 7 {
		r.WDayStatus = FieldBCD
		p3 = false
	} else {
		r.WDayStatus = FieldOK
	}
	if canStamp && p3 && !sanityErr {
		newTime.WDay = wday
		if initMin == 0 && old.WDay != newTime.WDay {
			r.WDayStatus = FieldJump
		}
	}

	centofs := calendar.CenturyOffset(*newTime)
	if centofs == -1 {
		if p1 {
			// A year that already failed its own parity/BCD check keeps that status.
			r.YearStatus = FieldBCD
		}
		p1 = false
	} else {
		fullYear := bcdBase1900[centofs] + newTime.Year%100
		if initMin == 0 && old.Year != fullYear {
			r.YearStatus = FieldJump
		}
		newTime.Year = fullYear
		if newTime.MDay > calendar.LastDayOfMonth(newTime.Year, newTime.Month) {
			// Preserved as-is: an out-of-range day for the now-known year/month also
			// invalidates the year and weekday groups, not just the day itself.
			r.MDayStatus = FieldBCD
			p1, p2, p3 = false, false, false
		}
	}

	// Hour (bits 39-44) and minute (bits 45-51), sharing parity bit 57.
	p4 := getpar(buffer, 39, 51, 57)
	hour := getbcd(buffer, 39, 44)
	minute := getbcd(buffer, 45, 51)
	if !p4 {
		r.HourStatus = FieldParity
		r.MinuteStatus = FieldParity
	} else {
		if hour > 23 {
			r.HourStatus = FieldBCD
			p4 = false
		} else {
			r.HourStatus = FieldOK
		}
		if minute > 59 {
			r.MinuteStatus = FieldBCD
			p4 = false
		} else {
			r.MinuteStatus = FieldOK
		}
	}
	if canStamp && p4 && !sanityErr {
		newTime.Hour = hour
		if initMin == 0 && old.Hour != newTime.Hour {
			r.HourStatus = FieldJump
		}
		newTime.Minute = minute
		if initMin == 0 && old.Minute != newTime.Minute {
			r.MinuteStatus = FieldJump
		}
	}

	errs.year, errs.monthDay, errs.wday, errs.hourMin = !p1, !p2, !p3, !p4
	return errs
}

// stampDateTime commits newTime's fields into time, unless the minute was malformed or any
// parity group failed this minute. The DST bit is only copied over if handleDST didn't flag a
// sudden, unannounced jump.
func stampDateTime(r *Result, sanityErr bool, errs fieldErrors, newTime calendar.Time, t *calendar.Time) {
	if r.MinuteLength == LengthOK && !sanityErr && !errs.any() {
		t.Minute = newTime.Minute
		t.Hour = newTime.Hour
		t.MDay = newTime.MDay
		t.Month = newTime.Month
		t.Year = newTime.Year
		t.WDay = newTime.WDay
		if r.DSTStatus != DSTJump {
			t.IsDST = newTime.IsDST
		}
	}
}

// handleLeapSecond accounts for the NPL convention that a leap second is inserted as bit 61
// around 00:00 (new hour); minlen 61 without the expected marker, or minlen 60 when one was
// due, both mark the minute as bad.
func (d *Decoder) handleLeapSecond(r *Result, sanityErr bool, minlen int, buffer []int, t calendar.Time) bool {
	if t.Minute == 0 {
		r.LeapStatus = LeapDone
		switch {
		case minlen == 60:
			r.MinuteLength = LengthShort
			sanityErr = true
		case minlen == 61 && buffer[17] == 1:
			r.LeapStatus = LeapOne
		}
	} else {
		r.LeapStatus = LeapNone
	}
	if minlen == 61 && r.LeapStatus == LeapNone {
		r.MinuteLength = LengthLong
		sanityErr = true
	}
	return sanityErr
}

// handleDST tracks the DST-announcement bit (buffer[16]) across the minutes leading up to the
// hour, requires a majority of the hour's minutes to have voted for it before accepting the
// change at :00, and otherwise treats an unannounced offset flip as a jump to be ignored.
// d.dstAnnounce, not Result.DSTAnnounce, is the carried vote: it's only recomputed while
// t.Minute > 0, so the decision at t.Minute == 0 has to read the value minute 59 last left it
// at, not a value freshly zeroed for this call.
func (d *Decoder) handleDST(r *Result, sanityErr bool, buffer []int, t calendar.Time, newTime *calendar.Time) bool {
	if buffer[16] == 1 && !sanityErr {
		d.dstCount++
	}
	if t.Minute > 0 {
		d.dstAnnounce = 2*d.dstCount > d.minuteCount
	}
	r.DSTAnnounce = d.dstAnnounce

	if buffer[17] != t.IsDST || buffer[18] == t.IsDST {
		switch {
		case d.dstAnnounce && t.Minute == 0:
			newTime.IsDST = buffer[17]
		case d.olderr && !sanityErr:
			newTime.IsDST = buffer[17]
		case t.IsDST == calendar.DSTUnknown:
			newTime.IsDST = buffer[17]
		default:
			r.DSTStatus = DSTJump
			sanityErr = true
		}
	}

	if d.dstAnnounce && t.Minute == 0 {
		r.DSTStatus = DSTDone
	}
	if t.Minute == 0 {
		d.dstAnnounce = false
		d.dstCount = 0
	}
	return sanityErr
}

// DecodeTime decodes one minute buffer and advances t in place. initMin follows the upstream
// convention: 2 while waiting for the first begin-of-minute marker, 1 after the first one
// seen, 0 in steady state once two have passed. minlen is the number of bits in the minute
// (-1 for "still unknown", 61 only for a leap second); accMinlen is the accumulated minute
// length in milliseconds, as tracked by pulse.Decoder.
func (d *Decoder) DecodeTime(initMin int, minlen int, accMinlen uint32, buffer [frame.BufLen]int, t *calendar.Time) Result {
	var r Result
	var newTime calendar.Time

	if initMin == 2 {
		t.IsDST = calendar.DSTUnknown
	}
	newTime.IsDST = t.IsDST

	sanityErr := !d.checkTimeSanity(&r, minlen, buffer[:])
	if !sanityErr {
		d.minuteCount++
		if d.minuteCount == 60 {
			d.minuteCount = 0
		}
	}

	// d.dstAnnounce still holds whatever handleDST last computed it as (it isn't touched
	// again until handleDST runs later this same call), mirroring decode_time.c passing its
	// persistent dt_res.dst_announce into increase_old_time before handle_dst updates it.
	increase := d.increaseOldTime(initMin, accMinlen, d.dstAnnounce, t)

	errs := d.calculateDateTime(&r, initMin, sanityErr, increase, buffer[:], *t, &newTime)
	// calculate_date_time returns its caller's errflags combined with the four field-parity
	// failure bits, and that combined value -- not the original sanityErr alone -- is what
	// handle_leap_second/handle_dst go on to check against zero (buffer[16]==1 && errflags==0,
	// olderr && errflags==0, ...). Fold errs in the same way before calling them.
	sanityErr = sanityErr || errs.any()
	// stamp_date_time masks its errflags to 0x1f before checking it, which drops the leap-second
	// (bit 5) and DST (bit 6) bits handle_leap_second/handle_dst are about to OR in: a DST-only
	// error still has to block olderr recovery below, but does not by itself block committing
	// newTime's fields. Capture the pre-leap/DST value for stampDateTime accordingly. A
	// leap-second error does block the commit: handleLeapSecond also sets r.MinuteLength to
	// short or long, and stampDateTime only commits a minute whose length is ok.
	stampErr := sanityErr

	if d.EnableLeapDST && initMin < 2 {
		sanityErr = d.handleLeapSecond(&r, sanityErr, minlen, buffer[:], *t)
		sanityErr = d.handleDST(&r, sanityErr, buffer[:], *t, &newTime)
	}

	stampDateTime(&r, stampErr, errs, newTime, t)

	if d.olderr && !sanityErr {
		d.olderr = false
	}
	if sanityErr {
		d.olderr = true
	}

	return r
}
