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
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// progressCapable are the helpers that understand the -C progress-bar
// flag.
var progressCapable = map[string]bool{
	"ext2":    true,
	"ext3":    true,
	"ext4":    true,
	"ext4dev": true,
}

// findHelper locates the check helper for fstype on the search path.
func findHelper(searchPath []string, fstype string) (path, prog string, err error) {
	prog = "fsck." + fstype
	if strings.HasPrefix(fstype, "fsck.") {
		prog = fstype
	}
	for _, dir := range searchPath {
		p := filepath.Join(dir, prog)
		if unix.Access(p, unix.X_OK) == nil {
			return p, prog, nil
		}
	}
	return "", prog, fmt.Errorf("%s: not found", prog)
}

// progressOwner returns the live instance holding the progress bar, or nil.
func (c *Checker) progressOwner() *Instance {
	for _, inst := range c.instances {
		if !inst.done && inst.progress {
			return inst
		}
	}
	return nil
}

// execute launches the check helper for e and registers the new
// instance. The returned status is only the launch's own contribution
// to the aggregate (helper-not-found for a strongly wanted type, or a
// failed fork); the helper's eventual exit code arrives via the reaper.
func (c *Checker) execute(e *Entry) Status {
	fstype := c.interpretType(e)
	if fstype == "" {
		if t := c.cfg.Filter.SoleType(); t != "" {
			fstype = t
		} else {
			fstype = c.cfg.DefaultType
		}
	}

	path, prog, err := findHelper(c.cfg.SearchPath, fstype)
	if err != nil {
		if stronglyWanted[fstype] {
			log.Printf("%v (for device %s)", err, c.resolveDevice(e))
			return ExitError
		}
		return ExitOK
	}

	inst := &Instance{
		prog:   prog,
		path:   path,
		fstype: fstype,
		entry:  e,
	}

	args := append([]string{}, c.cfg.HelperArgs...)
	if c.cfg.Progress && progressCapable[fstype] {
		if c.progressOwner() == nil {
			args = append(args, fmt.Sprintf("-C%d", c.cfg.ProgressFD))
			inst.progress = true
		} else {
			// Another helper owns the bar; the leading '-' tells
			// this one to stay quiet until it is handed over.
			args = append(args, fmt.Sprintf("-C-%d", c.cfg.ProgressFD))
		}
	}
	args = append(args, c.resolveDevice(e))

	c.lockDisk(inst)

	if c.cfg.NoExecute {
		fmt.Printf("[%s (%d) -- %s] %s %s\n", path, c.numRunning+1,
			entryName(e), prog, strings.Join(args, " "))
		inst.noexec = true
		inst.pid = -1
		inst.start = time.Now()
		c.instances = append(c.instances, inst)
		c.numRunning++
		return ExitOK
	}

	cmd := exec.Command(path)
	cmd.Args = append([]string{prog}, args...)
	if c.cfg.Interactive {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		warn("cannot run %s: %v", path, err)
		inst.unlock()
		return ExitError
	}
	inst.cmd = cmd
	inst.pid = cmd.Process.Pid
	inst.start = time.Now()
	c.instances = append(c.instances, inst)
	c.numRunning++
	c.cfg.Logf("started %s (pid %d) on %s", prog, inst.pid, c.resolveDevice(e))

	go func() {
		inst.waitErr = cmd.Wait()
		c.doneCh <- inst
	}()
	return ExitOK
}

// entryName is the mount point when known, else the source specifier.
func entryName(e *Entry) string {
	if e.File != "" && e.File != "none" {
		return e.File
	}
	return e.Spec
}
