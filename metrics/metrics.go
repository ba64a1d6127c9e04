// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package metrics exposes Prometheus counters and gauges tracking decode anomalies: minute
// length surprises, field rejects, DST jumps, leap seconds, and hardware status, so a live
// receiver can be monitored without scraping its capture log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/frame"
	"github.com/tve/npltime/pulse"
)

var (
	MinutesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "npltime_minutes_decoded_total", Help: "Total minutes that reached the frame decoder.",
	})
	MinuteLength = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_minute_length_total", Help: "Minute-length outcomes, by classification.",
	}, []string{"length"})
	FieldErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_field_errors_total", Help: "Per-field decode rejects, by field and status.",
	}, []string{"field", "status"})
	DSTTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_dst_transitions_total", Help: "DST status outcomes, by kind.",
	}, []string{"status"})
	LeapSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_leap_seconds_total", Help: "Leap-second outcomes, by kind.",
	}, []string{"status"})
	HWStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_hw_status_seconds_total", Help: "Seconds observed at each hardware status.",
	}, []string{"status"})
	MinuteMarkers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "npltime_minute_markers_total", Help: "Framer marker outcomes, by kind.",
	}, []string{"marker"})
	RealFreq = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "npltime_real_freq_hz", Help: "Current estimate of the sender's apparent sample rate, in Hz.",
	})
	FreqRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "npltime_freq_ratio", Help: "RealFreq divided by the sampler's configured nominal frequency; 1.0 is exact.",
	})
	FreqResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "npltime_freq_resets_total", Help: "Times RealFreq was reset to nominal after a sanity-check violation.",
	})
	BitlenResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "npltime_bitlen_resets_total", Help: "Times Bit0Width/Bit59Width were reset to defaults after a sanity-check violation.",
	})
)

// ObserveBit records per-second metrics: hardware status and any timing reset this second.
// nominalFreq is the sampler's configured rate (pulse.Sampler.Freq), used to normalize
// RealFreq into a ratio that stays comparable across receivers with different sample rates.
func ObserveBit(res pulse.Result, timing pulse.Timing, nominalFreq uint) {
	HWStatus.WithLabelValues(res.HW.String()).Inc()
	if timing.FreqReset {
		FreqResets.Inc()
	}
	if timing.BitlenReset {
		BitlenResets.Inc()
	}
	RealFreq.Set(float64(timing.RealFreq) / 1_000_000)
	if nominalFreq > 0 {
		FreqRatio.Set(float64(timing.RealFreq) / 1_000_000 / float64(nominalFreq))
	}
}

// ObserveMarker records the framer's outcome for this second.
func ObserveMarker(m frame.Marker) {
	MinuteMarkers.WithLabelValues(m.String()).Inc()
}

// ObserveMinute records a fully decoded minute's outcomes.
func ObserveMinute(dt decode.Result) {
	MinutesDecoded.Inc()
	MinuteLength.WithLabelValues(dt.MinuteLength.String()).Inc()

	fields := map[string]decode.FieldStatus{
		"minute": dt.MinuteStatus,
		"hour":   dt.HourStatus,
		"mday":   dt.MDayStatus,
		"wday":   dt.WDayStatus,
		"month":  dt.MonthStatus,
		"year":   dt.YearStatus,
	}
	for name, s := range fields {
		if s != decode.FieldOK {
			FieldErrors.WithLabelValues(name, s.String()).Inc()
		}
	}

	if dt.DSTStatus != decode.DSTOK {
		DSTTransitions.WithLabelValues(dstStatusName(dt.DSTStatus)).Inc()
	}
	if dt.LeapStatus != decode.LeapNone {
		LeapSeconds.WithLabelValues(leapStatusName(dt.LeapStatus)).Inc()
	}
}

func dstStatusName(s decode.DSTState) string {
	switch s {
	case decode.DSTJump:
		return "jump"
	case decode.DSTDone:
		return "done"
	default:
		return "ok"
	}
}

func leapStatusName(s decode.LeapState) string {
	switch s {
	case decode.LeapOne:
		return "one"
	case decode.LeapDone:
		return "done"
	default:
		return "none"
	}
}
