// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build freebsd

package gpioline

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FreeBSD /usr/include/sys/gpio.h layout used by GPIOSETCONFIG/GPIOGET.
const (
	gpioPinInput = 0x0002

	gpioSetConfig = 0xc0187400 // _IOW('G', 0, struct gpio_pin), padded to match ioctl ABI below
	gpioGet       = 0xc0107401 // _IOWR('G', 1, struct gpio_req)
)

type gpioPin struct {
	pin   uint32
	name  [64]byte
	flags uint32
}

type gpioReq struct {
	pin   uint32
	name  [64]byte
	value uint32
}

// Ioctl is a GPIO Source backed by FreeBSD's /dev/gpioc<N> controller device, configured for
// input via GPIOSETCONFIG and sampled via GPIOGET.
type Ioctl struct {
	cfg Config
	f   *os.File
}

// OpenIoctl opens /dev/gpioc<cfg.IODev> and configures cfg.Pin as an input.
func OpenIoctl(cfg Config) (*Ioctl, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/gpioc%d", cfg.IODev), os.O_RDWR, 0)
	if err != nil {
		return nil, wrapHW("open(gpioc)", err)
	}
	pin := gpioPin{pin: uint32(cfg.Pin), flags: gpioPinInput}
	if err := ioctl(f.Fd(), gpioSetConfig, unsafe.Pointer(&pin)); err != nil {
		f.Close()
		return nil, wrapHW("ioctl(GPIOSETCONFIG)", err)
	}
	return &Ioctl{cfg: cfg, f: f}, nil
}

func (i *Ioctl) Read() (Level, error) {
	req := gpioReq{pin: uint32(i.cfg.Pin)}
	if err := ioctl(i.f.Fd(), gpioGet, unsafe.Pointer(&req)); err != nil {
		return Low, wrapHW("ioctl(GPIOGET)", err)
	}
	if req.value != 0 {
		return High, nil
	}
	return Low, nil
}

func (i *Ioctl) Close() error {
	return i.f.Close()
}

func ioctl(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
