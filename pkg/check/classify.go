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
	"log"
	"os"

	"diskcheck.org/pkg/fstab"
)

// alwaysIgnore are types never worth checking regardless of the mount
// table's say-so.
var alwaysIgnore = map[string]bool{
	"ignore":  true,
	"iso9660": true,
	"sw":      true,
}

// stronglyWanted are types whose missing helper is an error rather than
// a silent skip: a machine with such an fstab almost certainly expects
// the check to happen.
var stronglyWanted = map[string]bool{
	"minix":    true,
	"ext2":     true,
	"ext3":     true,
	"ext4":     true,
	"ext4dev":  true,
	"jfs":      true,
	"reiserfs": true,
}

// interpretType memoizes the entry's effective filesystem type: the
// declared one unless it is absent or "auto", in which case the device
// is probed. An ambiguous probe leaves the type undetermined.
func (c *Checker) interpretType(e *Entry) string {
	if e.typed {
		return e.fstype
	}
	e.typed = true
	if e.Type != "" && e.Type != "auto" {
		e.fstype = e.Type
		return e.fstype
	}
	dev := c.resolveDevice(e)
	fstype, ambiguous, err := c.cfg.Probe(dev)
	if err != nil {
		c.cfg.Logf("cannot probe %s: %v", dev, err)
		return ""
	}
	if ambiguous {
		c.cfg.Logf("%s: more than one filesystem type detected, not checking", dev)
		return ""
	}
	e.fstype = fstype
	return e.fstype
}

// isIgnored decides whether the entry must be skipped. It is the
// classifier of the sweep's first pass; the decision order matters and
// mirrors what the helpers' users have depended on for decades.
func (c *Checker) isIgnored(e *Entry) bool {
	if e.PassNo == 0 {
		return true
	}
	if e.HasOption("bind") {
		warn("%s: 'bind' mount with a non-zero fsck pass number", e.Spec)
		return true
	}

	dev := c.resolveDevice(e)
	if _, err := os.Stat(dev); err != nil {
		if e.HasOption("nofail") {
			return true
		}
		warn("cannot stat %s: %v; checking anyway", dev, err)
	}

	fstype := c.interpretType(e)

	if !c.cfg.Filter.Matches(fstype, e.HasOption) {
		return true
	}
	if fstype == "" {
		c.cfg.Logf("%s: unknown filesystem type, not checking", e.Spec)
		return true
	}
	if alwaysIgnore[fstype] || isNonDevice(fstype) {
		return true
	}

	if _, _, err := findHelper(c.cfg.SearchPath, fstype); err != nil {
		if stronglyWanted[fstype] {
			log.Printf("fsck.%s not found on %v; cannot check %s", fstype, c.cfg.SearchPath, e.Spec)
		}
		return true
	}
	return false
}

// isNonDevice reports types with no local block device behind them.
func isNonDevice(fstype string) bool {
	return fstab.IsNetwork(fstype) || fstab.IsPseudo(fstype) || fstab.IsSwap(fstype)
}
