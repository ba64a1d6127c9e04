// github.com/tve/npltime decodes the UK NPL 60kHz time broadcast (MSF) from a one-bit GPIO
// pulse stream and recovers civil date, time-of-day, day-of-week, DST state and leap-second
// events from it. Each concern lives in its own package and is stand-alone: calendar math,
// pulse sampling/symbol decoding, minute framing, frame decoding, GPIO access and capture-log
// I/O. The receiver package wires them together; cmd/nplpi-live and cmd/nplpi-analyze are the
// live daemon and offline capture-log analyzer.
package nplpi

// BufLen is the number of slots in a minute buffer (bit 0 through bit 60, inclusive).
const BufLen = 61
