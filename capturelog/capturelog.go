// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package capturelog implements the text capture-log format: a Writer that satisfies
// pulse.Sink for live/analyze mode, and a Reader that replays a previously captured log for
// offline analysis. The format is a flat alphabet of single characters, one per second, with
// an "a<acc_minlen>\n" marker at the end of each minute; see spec §6.
package capturelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/robfig/cron"
)

// flushInterval is how often the background task flushes the buffered writer to disk.
const flushInterval = "@every 60s"

// Writer buffers capture-log characters and flushes them to disk on a schedule, implementing
// pulse.Sink. The main decode loop and the flush task both reach the same bufio.Writer, guarded
// by mu, so a flush never races a WriteByte/WriteAccMinLen mid-write.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer

	cron *cron.Cron
	pool pond.Pool
}

// NewWriter opens path in append mode (creating it if necessary) and starts the 60-second
// background flush task. The flush task is never stopped: per spec §5 it has no cancellation
// path and is simply abandoned when the process exits.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("capturelog: cannot open %s: %w", path, err)
	}

	w := &Writer{
		file: f,
		buf:  bufio.NewWriter(f),
		cron: cron.New(),
		pool: pond.NewPool(1),
	}
	w.cron.AddFunc(flushInterval, w.scheduleFlush)
	w.cron.Start()
	return w, nil
}

// scheduleFlush submits a flush to the single-worker pool rather than flushing inline from the
// cron goroutine, so a slow disk never backs up the cron scheduler.
func (w *Writer) scheduleFlush() {
	w.pool.Submit(func() { _ = w.Flush() })
}

// WriteByte appends one capture-log character, implementing pulse.Sink.
func (w *Writer) WriteByte(b byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.WriteByte(b)
}

// WriteAccMinLen appends the end-of-minute "a<ms>\n" marker, implementing pulse.Sink. The
// caller is responsible for the ordering contract of spec §5: this must be called immediately
// after the minute's final symbol character and before the framer advances past bit 0.
func (w *Writer) WriteAccMinLen(ms uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.buf, "a%d\n", ms)
	return err
}

// Flush forces any buffered bytes out to the underlying file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close flushes and closes the log file; it does not stop the cron scheduler or drain the
// flush pool, matching the "abandoned on process exit" behavior spec.md §5 calls for.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// TokenKind classifies one character read back from a capture log.
type TokenKind int

const (
	// TokenSymbol is one of '0'..'4', a decoded A/B symbol or begin-of-minute marker.
	TokenSymbol TokenKind = iota
	// TokenHWStatus is one of 'x' (transmit), 'r' (receive-only), '#' (random).
	TokenHWStatus
	// TokenIOError is '*'.
	TokenIOError
	// TokenNone is '_', an unreadable second.
	TokenNone
	// TokenReset is '<', '>', or '!', a frequency/bitlen reset marker.
	TokenReset
	// TokenAccMinLen is an "a<ms>" end-of-minute marker.
	TokenAccMinLen
)

// Token is one parsed unit from a replayed capture log.
type Token struct {
	Kind   TokenKind
	Char   byte   // the raw character, for TokenSymbol/TokenHWStatus/TokenIOError/TokenNone/TokenReset
	AccLen uint32 // valid only for TokenAccMinLen
}

// ErrMalformed is returned by Reader.Next when an "a" marker is not followed by a valid
// unsigned decimal number.
var ErrMalformed = errors.New("capturelog: malformed acc_minlen marker")

// Reader replays a capture log written by Writer, skipping any character outside the capture
// alphabet (per spec §6, "any other character is skipped") and normalizing CR to LF. It does
// not reproduce the upstream file-reader's one-character lookahead for an imminent minute
// marker (input.c's dec_bp accommodation); callers only ever see the symbol stream and the
// acc_minlen markers in the order they were written.
type Reader struct {
	src *bufio.Reader
}

// NewReader wraps r for token-at-a-time replay.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReader(r)}
}

// Next returns the next token, or io.EOF once the log is exhausted.
func (r *Reader) Next() (Token, error) {
	for {
		b, err := r.src.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if b == '\r' {
			b = '\n'
		}
		switch b {
		case '0', '1', '2', '3', '4':
			return Token{Kind: TokenSymbol, Char: b}, nil
		case 'x', 'r', '#':
			return Token{Kind: TokenHWStatus, Char: b}, nil
		case '*':
			return Token{Kind: TokenIOError, Char: b}, nil
		case '_':
			return Token{Kind: TokenNone, Char: b}, nil
		case '<', '>', '!':
			return Token{Kind: TokenReset, Char: b}, nil
		case '\n':
			continue
		case 'a':
			return r.readAccMinLen()
		default:
			continue // not in the capture alphabet; skip
		}
	}
}

// readAccMinLen consumes the decimal digits and terminating newline of an "a<ms>\n" marker.
func (r *Reader) readAccMinLen() (Token, error) {
	var digits []byte
	for {
		b, err := r.src.ReadByte()
		if err != nil {
			return Token{}, err
		}
		if b == '\n' || b == '\r' {
			break
		}
		if b < '0' || b > '9' {
			return Token{}, ErrMalformed
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return Token{}, ErrMalformed
	}
	v, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return Token{}, ErrMalformed
	}
	return Token{Kind: TokenAccMinLen, AccLen: uint32(v)}, nil
}

// ReadAll drains r into a slice of tokens; it's the replay tool's entry point and is only
// reasonable for the bounded file sizes a day's capture log produces.
func (r *Reader) ReadAll() ([]Token, error) {
	var toks []Token
	for {
		tok, err := r.Next()
		if err == io.EOF {
			return toks, nil
		}
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
}
