// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Command nplpi-analyze replays a previously captured NPL time-code log and prints the same
// per-second/per-minute transcript the live daemon would have produced, without touching any
// hardware. It takes exactly one argument: the path to a capture log written by nplpi-live.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tve/npltime/calendar"
	"github.com/tve/npltime/capturelog"
	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/display"
	"github.com/tve/npltime/frame"
	"github.com/tve/npltime/pulse"
)

// exUsage is sysexits.h's EX_USAGE, returned when the infile argument is missing.
const exUsage = 64

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s infile\n", os.Args[0])
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(exUsage)
	}
	infile := pflag.Arg(0)

	f, err := os.Open(infile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
	defer f.Close()

	if err := replay(f, display.NewAnalyzeSink(os.Stdout)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an I/O failure to its errno where available, matching nplpi-analyze.c's
// practice of returning the failing syscall's result straight out of main.
func exitCodeFor(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 1
}

// replay drives a capture log through the minute framer and frame decoder exactly as the live
// receiver would, one token at a time, without any pulse sampling: the log already carries
// decoded symbols, not raw GPIO samples.
func replay(r io.Reader, sink *display.AnalyzeSink) error {
	reader := capturelog.NewReader(r)
	fr := &frame.State{Cutoff: -1} // pulse timing diagnostics have no meaning in replay
	dec := decode.NewDecoder()
	var curTime calendar.Time
	var accMinLen uint32
	initMin := 2

	for {
		tok, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if tok.Kind == capturelog.TokenReset {
			continue // informational only, not a per-second event
		}

		// An "a<ms>" line reports elapsed time without a sampled bit: next_bit() in the
		// upstream decoder runs unconditionally (marker/cutoff bookkeeping still applies),
		// it just suppresses the bit-position advance and the per-bit display.
		var marker frame.Marker
		if tok.Kind == capturelog.TokenAccMinLen {
			accMinLen = tok.AccLen
			fr.SkipSymbol()
			marker = fr.SkipBit()
		} else {
			res := resultFromToken(tok)
			sink.DisplayBit(res, fr.BitPos)
			fr.SetSymbol(res.Symbol)
			marker = fr.NextBit()
		}

		minLen := fr.OldBitPos
		switch marker {
		case frame.TooLong, frame.Late:
			minLen = -1
			sink.DisplayLongMinute()
		}
		sink.DisplayNewSecond()

		if marker == frame.Minute || marker == frame.Late {
			sink.DisplayMinute(accMinLen, minLen, fr.Cutoff)
			dt := dec.DecodeTime(initMin, minLen, accMinLen, fr.Buffer, &curTime)
			sink.DisplayTime(dt, curTime)
			accMinLen = 0
			if initMin > 0 {
				initMin--
			}
		}
	}
}

func resultFromToken(tok capturelog.Token) pulse.Result {
	switch tok.Kind {
	case capturelog.TokenSymbol:
		return pulse.Result{Symbol: symbolFromDigit(tok.Char), HW: pulse.HWOk}
	case capturelog.TokenHWStatus:
		return pulse.Result{Symbol: pulse.None, HW: hwFromChar(tok.Char)}
	case capturelog.TokenIOError:
		return pulse.Result{Symbol: pulse.None, HW: pulse.HWOk, BadIO: true}
	default: // TokenNone
		return pulse.Result{Symbol: pulse.None, HW: pulse.HWOk}
	}
}

func symbolFromDigit(b byte) pulse.Symbol {
	switch b {
	case '0':
		return pulse.AB00
	case '1':
		return pulse.AB10
	case '2':
		return pulse.AB01
	case '3':
		return pulse.AB11
	case '4':
		return pulse.BeginMinute
	default:
		return pulse.None
	}
}

func hwFromChar(b byte) pulse.HWStatus {
	switch b {
	case 'x':
		return pulse.HWTransmit
	case 'r':
		return pulse.HWReceiveOnly
	case '#':
		return pulse.HWRandom
	default:
		return pulse.HWOk
	}
}
