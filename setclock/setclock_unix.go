// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build linux || freebsd

package setclock

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Unix steps the host kernel clock via settimeofday(2). The broadcast only carries
// minute-granularity time, so the second and sub-second fields of the resulting Timeval are
// always zero.
type Unix struct{}

// NewUnix returns a Setter backed by settimeofday(2).
func NewUnix() *Unix { return &Unix{} }

func (Unix) Set(year, month, mday, hour, minute int) error {
	t := time.Date(year, time.Month(month), mday, hour, minute, 0, 0, time.UTC)
	tv := unix.NsecToTimeval(t.UnixNano())
	if err := unix.Settimeofday(&tv); err != nil {
		return fmt.Errorf("setclock: settimeofday: %w", err)
	}
	return nil
}

var _ Setter = Unix{}
