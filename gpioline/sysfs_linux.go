// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build linux

package gpioline

import (
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// Sysfs is a GPIO Source backed by periph.io's Linux sysfs-gpio driver, looked up by name via
// gpioreg the same way raw.go resolves its radio interrupt pin.
type Sysfs struct {
	cfg Config
	pin gpio.PinIn
}

// pinName is the gpioreg name periph's sysfs-gpio driver registers a numbered line under.
func pinName(pin uint) string {
	return fmt.Sprintf("GPIO%d", pin)
}

// OpenSysfs looks up cfg.Pin and configures it for floating input, no edge detection (the
// sampler polls rather than waits on interrupts). Configuring the pin as an input is retried
// briefly with backoff (up to 3 retries): right after boot, the sysfs gpio device node periph
// opens underneath can still be owned by root with udev's permission rule not yet applied, so
// an immediate open can fail with EACCES a few hundred milliseconds before it settles. A pin
// name gpioreg does not know, or a pin without input support, fails at once.
func OpenSysfs(cfg Config) (*Sysfs, error) {
	hostInitOnce.Do(func() { _, hostInitErr = host.Init() })
	if hostInitErr != nil {
		return nil, wrapHW("host.Init", hostInitErr)
	}

	name := pinName(cfg.Pin)
	var pinIn gpio.PinIn
	op := func() error {
		p := gpioreg.ByName(name)
		if p == nil {
			return backoff.Permanent(fmt.Errorf("no such GPIO pin %q", name))
		}
		in, ok := p.(gpio.PinIn)
		if !ok {
			return backoff.Permanent(fmt.Errorf("pin %q does not support input mode", name))
		}
		if err := in.In(gpio.Float, gpio.NoEdge); err != nil {
			return err
		}
		pinIn = in
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, b); err != nil {
		return nil, wrapHW("configure", err)
	}
	return &Sysfs{cfg: cfg, pin: pinIn}, nil
}

// Read samples the current pin level. periph's own gpio.PinIn.Read never fails once the pin is
// configured, so the error return only ever surfaces a future periph API change, never a
// runtime condition this package generates itself.
func (s *Sysfs) Read() (Level, error) {
	if s.pin.Read() == gpio.High {
		return High, nil
	}
	return Low, nil
}

// Close is a no-op: periph's sysfs-gpio pins have no explicit unexport/close step, unlike the
// raw sysfs export dance they replace.
func (s *Sysfs) Close() error {
	return nil
}
