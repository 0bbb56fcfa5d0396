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
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockDisk takes the advisory per-disk lock before inst's helper runs,
// when disk locking is on and the disk is rotational. Solid-state disks
// are skipped: there is no spindle to fight over. The lock coordinates
// cooperating diskcheck processes on the same host; every failure along
// the way is demoted to a warning and the helper simply runs unlocked.
//
// Lock files are left behind on purpose. The next run reuses them, and
// unlinking would race other supervisors holding them.
func (c *Checker) lockDisk(inst *Instance) {
	if !c.cfg.LockDisk {
		return
	}
	disk := c.diskOf(inst.entry)
	if disk.IsZero() {
		return
	}
	if rot, err := c.cfg.Resolver.Rotational(disk); err != nil || !rot {
		return
	}
	name, err := c.cfg.Resolver.DiskName(disk)
	if err != nil {
		warn("cannot name disk %v for locking: %v", disk, err)
		return
	}
	dir := c.cfg.RuntimeDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		warn("cannot create %s: %v", dir, err)
		return
	}
	path := filepath.Join(dir, name+".lock")
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		warn("cannot open lock file %s: %v", path, err)
		return
	}
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		c.cfg.Logf("%s is locked by another process, waiting", path)
		for {
			err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
			if err != unix.EINTR || c.Canceled() {
				break
			}
		}
	}
	if err != nil {
		warn("cannot lock %s: %v", path, err)
		f.Close()
		return
	}
	inst.lock = f
	inst.lockPath = path
}

// unlock releases the instance's per-disk lock, if it holds one.
func (inst *Instance) unlock() {
	if inst.lock == nil {
		return
	}
	unix.Flock(int(inst.lock.Fd()), unix.LOCK_UN)
	inst.lock.Close()
	inst.lock = nil
	inst.lockPath = ""
}
