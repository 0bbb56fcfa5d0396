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

// lookup finds an entry by source specifier or mount point.
func (c *Checker) lookup(what string) *Entry {
	for _, e := range c.entries {
		if e.Spec == what || e.File == what {
			return e
		}
	}
	return nil
}

// entryMounted consults the live mount table for the entry, by device
// first and by mount point as a fallback.
func (c *Checker) entryMounted(e *Entry) bool {
	if m, err := c.cfg.MountedDevice(c.resolveDevice(e)); err == nil && m {
		return true
	}
	if e.File == "" || e.File == "none" {
		return false
	}
	m, err := c.cfg.Mounted(e.File)
	return err == nil && m
}

// atCapacity reports whether the driver must stop launching and reap.
func (c *Checker) atCapacity() bool {
	return c.cfg.Serialize ||
		(c.cfg.MaxRunning > 0 && c.numRunning >= c.cfg.MaxRunning)
}

// CheckAll sweeps the whole mount table: classify everything, give the
// root filesystem its own stage, then run the remaining entries in
// ascending pass order, keeping as many helpers in flight as the
// spindle policy and concurrency cap allow.
func (c *Checker) CheckAll() Status {
	for _, e := range c.entries {
		if c.isIgnored(e) {
			e.done = true
		}
	}

	if !c.cfg.ParallelRoot {
		root := c.lookup("/")
		if root != nil && !root.done && !(c.cfg.IgnoreMounted && c.entryMounted(root)) {
			c.status.Or(c.execute(root))
			root.done = true
			c.status.Or(c.waitMany(WaitAll))
			if c.status > ExitNondestruct {
				return c.status
			}
		}
	}

	if c.cfg.SkipRoot {
		for _, e := range c.entries {
			if e.File == "/" {
				e.done = true
			}
		}
	}

	passNo := 1
	for {
		moreLater := false
		passDone := true
		for _, e := range c.entries {
			if c.Canceled() {
				break
			}
			if e.done {
				continue
			}
			if e.PassNo > passNo {
				moreLater = true
				continue
			}
			if c.cfg.IgnoreMounted && c.entryMounted(e) {
				e.done = true
				continue
			}
			if c.diskAlreadyActive(e) {
				passDone = false
				continue
			}
			c.status.Or(c.execute(e))
			e.done = true
			if c.atCapacity() {
				passDone = false
				break
			}
		}
		if c.Canceled() {
			break
		}
		if !passDone {
			// The pass still has deferred entries; reap at least one
			// helper to free a spindle (or a concurrency slot) and
			// rescan.
			c.status.Or(c.waitMany(WaitAtLeastOne))
			continue
		}
		c.status.Or(c.waitMany(WaitAll))
		if !moreLater {
			break
		}
		passNo++
	}

	if c.Canceled() {
		c.killAll()
		c.status.Or(c.waitMany(WaitAll))
	}
	return c.status
}

// CheckDevices checks the named devices or mount points only. Items
// found in the mount table keep their declared type and options;
// unknown items are checked as probed, pass-1 entries. Table order and
// pass staging do not apply; the spindle policy and cap still do.
func (c *Checker) CheckDevices(items []string) Status {
	var sel []*Entry
	for _, it := range items {
		e := c.lookup(it)
		if e == nil {
			e = c.addEntry(it)
		}
		sel = append(sel, e)
	}

	for _, e := range sel {
		if c.Canceled() {
			break
		}
		if e.done {
			continue
		}
		if c.cfg.IgnoreMounted && c.entryMounted(e) {
			e.done = true
			continue
		}
		for c.diskAlreadyActive(e) && !c.Canceled() {
			c.status.Or(c.waitMany(WaitAtLeastOne))
		}
		if c.Canceled() {
			break
		}
		c.status.Or(c.execute(e))
		e.done = true
		if c.atCapacity() {
			c.status.Or(c.waitMany(WaitAtLeastOne))
		}
	}

	if c.Canceled() {
		c.killAll()
	}
	c.status.Or(c.waitMany(WaitAll))
	return c.status
}
