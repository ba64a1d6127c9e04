// Package thread pins the receiver loop's goroutine to a realtime-scheduled OS thread, so the
// sub-second sampling cadence in pulse.Sampler.CollectPulses isn't at the mercy of the Go
// scheduler migrating it between cores or descheduling it behind unrelated goroutines.
package thread

import (
	"runtime"
	"syscall"
	"unsafe"
)

// Realtime locks the calling goroutine to its own kernel thread and elevates that thread's
// scheduling priority to realtime round-robin at priority level 10 (lower-middle of the
// range), so the sampler's polling loop keeps pace with the broadcast's 100ms/500ms pulses
// even under load.
func Realtime() error {
	// First pin goroutine to its own kernel thread.
	runtime.LockOSThread()
	// Get the ID of the thread.
	tid := syscall.Gettid()
	// Give this thread realtime priority.
	res, _, err := syscall.RawSyscall(syscall.SYS_SCHED_SETSCHEDULER, uintptr(tid),
		uintptr(RR), uintptr(unsafe.Pointer(&schedParam{10})))
	if res == 0 {
		return nil
	}
	return err
}

const FIFO = 1 // fifo scheduling policy
const RR = 2   // round-robin scheduling policy

type schedParam struct {
	Priority int
}
