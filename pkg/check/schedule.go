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

// diskAlreadyActive reports whether launching a helper for e now would
// put two checks on the same spindle. Rules, in order:
//
//  1. forced parallelism switches the whole policy off;
//  2. a running check of a stacked device reserves everything, since
//     its I/O may touch any of its slave disks;
//  3. an entry whose disk is unknown, or which is itself stacked,
//     conflicts with any running check at all;
//  4. otherwise only a running check on the same whole disk conflicts.
func (c *Checker) diskAlreadyActive(e *Entry) bool {
	if c.cfg.ForceAllParallel {
		return false
	}
	for _, inst := range c.instances {
		if !inst.done && inst.entry.stacked {
			return true
		}
	}
	disk := c.diskOf(e)
	if disk.IsZero() || e.stacked {
		return c.numRunning > 0
	}
	for _, inst := range c.instances {
		if !inst.done && c.diskOf(inst.entry) == disk {
			return true
		}
	}
	return false
}
