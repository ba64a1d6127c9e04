// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build linux || freebsd

// Command nplpi-live is the live receiver daemon: it samples a GPIO pin, decodes the NPL
// 60kHz time code, appends every second to a capture log, prints a running transcript, exposes
// Prometheus metrics, and optionally steps the host clock once the signal has proven itself
// trustworthy. It only builds on Linux and FreeBSD, the two platforms gpioline supports.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/tve/npltime/capturelog"
	"github.com/tve/npltime/config"
	"github.com/tve/npltime/decode"
	"github.com/tve/npltime/display"
	"github.com/tve/npltime/frame"
	"github.com/tve/npltime/gpioline"
	"github.com/tve/npltime/pulse"
	"github.com/tve/npltime/receiver"
	"github.com/tve/npltime/setclock"
)

// exDataErr is sysexits.h's EX_DATAERR, returned when the configuration fails validation.
const exDataErr = 65

func main() {
	configPath := pflag.StringP("config", "c", "nplpi.json", "receiver configuration file")
	logPath := pflag.StringP("logfile", "l", "nplpi.log", "capture log path (appended to)")
	metricsAddr := pflag.String("metrics-addr", ":9107", "Prometheus /metrics listen address")
	setClock := pflag.Bool("setclock", false, "step the host clock once a minute decodes cleanly")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("invalid configuration", "path", *configPath, "err", err)
		os.Exit(exDataErr)
	}

	src, err := openGPIO(cfg)
	if err != nil {
		log.Fatal("cannot open GPIO source", "err", err)
	}
	defer src.Close()

	capLog, err := capturelog.NewWriter(*logPath)
	if err != nil {
		log.Fatal("cannot open capture log", "err", err)
	}
	defer capLog.Close()

	sampler := &pulse.Sampler{
		Freq:  cfg.Freq,
		Clock: clockwork.NewRealClock(),
		Src:   src,
		Cfg:   gpioline.Config{Pin: cfg.Pin, ActiveHigh: cfg.ActiveHigh, IODev: cfg.IODev},
	}
	loop := receiver.NewLoop(
		pulse.NewDecoder(sampler),
		&frame.State{Cutoff: -1},
		decode.NewDecoder(),
		capLog,
		display.NewConsole(os.Stdout),
	)
	if *setClock {
		loop.Clock = setclock.NewUnix()
		loop.SetTime = true
	}

	go serveMetrics(*metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info("nplpi-live starting", "pin", cfg.Pin, "freq", cfg.Freq, "setclock", loop.SetTime)
	loop.Run(ctx)
	log.Info("nplpi-live exiting")
}

// openGPIO picks the OS-appropriate GPIO source; FreeBSD uses the gpioc ioctl interface,
// everything else (in practice, Linux) uses the sysfs class.
func openGPIO(cfg config.Config) (gpioline.Source, error) {
	lineCfg := gpioline.Config{Pin: cfg.Pin, ActiveHigh: cfg.ActiveHigh, IODev: cfg.IODev}
	if runtime.GOOS == "freebsd" {
		return gpioline.OpenIoctl(lineCfg)
	}
	return gpioline.OpenSysfs(lineCfg)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server exited", "err", err)
	}
}
