/*
Copyright 2026 The Diskcheck Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package check

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// WaitMode selects how much waitMany drains.
type WaitMode int

const (
	// WaitAll reaps until no instance is left.
	WaitAll WaitMode = iota
	// WaitAtLeastOne blocks for one completion, then keeps reaping
	// only what is already finished.
	WaitAtLeastOne
)

// youngHelper is how recently a helper must have started for the
// progress-bar hand-off signal to be deferred, giving it time to
// install its SIGUSR1 handler.
const youngHelper = 2 * time.Second

// waitOne reaps at most one completed helper and returns its instance,
// or nil when nothing is (block=false) or will be (numRunning==0)
// available. On the first reap that observes a cancellation request it
// broadcasts SIGTERM to every live helper, exactly once per run.
func (c *Checker) waitOne(block bool) *Instance {
	if c.numRunning == 0 {
		return nil
	}

	// Instances that never ran (-N) have nothing to wait for.
	for _, inst := range c.instances {
		if !inst.done && inst.noexec {
			inst.end = time.Now()
			inst.exitCode = ExitOK
			return c.finish(inst)
		}
	}

	cancelCh := c.cancelCh
	for {
		if c.Canceled() && !c.killSent {
			c.killAll()
		}
		if c.killSent {
			cancelCh = nil // already propagated; only children remain
		}
		if !block {
			select {
			case inst := <-c.doneCh:
				return c.reap(inst)
			default:
				return nil
			}
		}
		select {
		case inst := <-c.doneCh:
			return c.reap(inst)
		case <-cancelCh:
			// Woken by the cancel flag; propagate and go back to
			// waiting for the children to die.
		}
	}
}

// reap decodes a completed child's wait status into a normalized exit
// code and retires the instance.
func (c *Checker) reap(inst *Instance) *Instance {
	if c.Canceled() && !c.killSent {
		c.killAll()
	}
	inst.end = time.Now()

	ps := inst.cmd.ProcessState
	if ps != nil {
		if ru, ok := ps.SysUsage().(*syscall.Rusage); ok {
			inst.rusage = ru
		}
	}
	ws, ok := syscall.WaitStatus(0), false
	if ps != nil {
		ws, ok = ps.Sys().(syscall.WaitStatus)
	}
	inst.waitStatus = ws
	switch {
	case ok && ws.Exited():
		inst.exitCode = decodeExit(ws)
	case ok && ws.Signaled():
		inst.exitCode = decodeExit(ws)
		if ws.Signal() != syscall.SIGINT {
			warn("%s %s terminated by signal %s", inst.prog,
				c.resolveDevice(inst.entry), signalName(ws.Signal()))
		}
	default:
		warn("wait: should never happen (%s on %s: %v)", inst.prog,
			c.resolveDevice(inst.entry), inst.waitErr)
		inst.exitCode = ExitError
	}
	return c.finish(inst)
}

// decodeExit maps a wait status to the normalized fsck exit code: a
// normal exit keeps its code, death by SIGINT counts as "errors left
// uncorrected", death by any other signal as an operational error.
func decodeExit(ws syscall.WaitStatus) Status {
	switch {
	case ws.Exited():
		return Status(ws.ExitStatus())
	case ws.Signaled() && ws.Signal() == syscall.SIGINT:
		return ExitUncorrected
	default:
		return ExitError
	}
}

func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("%d", int(sig))
}

// finish marks the instance done, hands the progress bar over, releases
// the disk lock, emits statistics, and removes the instance from the
// live list.
func (c *Checker) finish(inst *Instance) *Instance {
	inst.done = true
	c.numRunning--

	if inst.progress && c.progressOwner() == nil {
		c.handOffProgress()
	}
	inst.unlock()

	if c.cfg.ReportStats {
		w := c.cfg.StatsWriter
		if w == nil {
			w = os.Stdout
		}
		fmt.Fprintln(w, c.statsLine(inst))
	}

	for i, other := range c.instances {
		if other == inst {
			c.instances = append(c.instances[:i], c.instances[i+1:]...)
			break
		}
	}
	return inst
}

// handOffProgress gives the bar to the first live helper that can draw
// it. A helper younger than youngHelper gets the signal on a delay so
// it has installed its handler by the time SIGUSR1 arrives; the bar
// briefly having no owner is acceptable.
func (c *Checker) handOffProgress() {
	for _, next := range c.instances {
		if next.done || next.noexec || !progressCapable[next.fstype] {
			continue
		}
		next.progress = true
		proc := next.cmd.Process
		if time.Since(next.start) < youngHelper {
			time.AfterFunc(time.Second, func() {
				proc.Signal(syscall.SIGUSR1)
			})
		} else {
			proc.Signal(syscall.SIGUSR1)
		}
		return
	}
}

// waitMany reaps per mode and returns the OR of the exit codes it saw.
func (c *Checker) waitMany(mode WaitMode) Status {
	var s Status
	reaped := false
	for {
		var inst *Instance
		if mode == WaitAtLeastOne && reaped {
			inst = c.waitOne(false)
		} else {
			inst = c.waitOne(true)
		}
		if inst == nil {
			break
		}
		reaped = true
		s.Or(inst.exitCode)
	}
	return s
}
