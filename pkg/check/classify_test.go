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
	"path/filepath"
	"testing"

	"diskcheck.org/pkg/blockdev"
	"diskcheck.org/pkg/fstab"
)

func TestIsIgnored(t *testing.T) {
	rig := newTestRig(t)
	sda1 := rig.addDevice("sda1", blockdev.DiskID{Major: 8, Minor: 0})
	missing := filepath.Join(rig.devDir, "gone")

	tests := []struct {
		name    string
		entry   *fstab.Entry
		filter  string
		probe   func(string) (string, bool, error)
		ignored bool
	}{
		{
			name:    "pass zero",
			entry:   entry(sda1, "/", "ext4", 0),
			ignored: true,
		},
		{
			name: "bind mount",
			entry: &fstab.Entry{
				Spec: sda1, File: "/mnt", Type: "none",
				Options: "bind", PassNo: 1,
			},
			ignored: true,
		},
		{
			name: "missing device with nofail",
			entry: &fstab.Entry{
				Spec: missing, File: "/mnt", Type: "ext4",
				Options: "nofail", PassNo: 1,
			},
			ignored: true,
		},
		{
			name:    "missing device without nofail",
			entry:   entry(missing, "/mnt", "ext4", 1),
			ignored: false, // warned about, but still checked
		},
		{
			name:    "filter mismatch",
			entry:   entry(sda1, "/", "ext4", 1),
			filter:  "xfs",
			ignored: true,
		},
		{
			name:    "filter match",
			entry:   entry(sda1, "/", "ext4", 1),
			filter:  "ext4",
			ignored: false,
		},
		{
			name:  "auto probed to ext4",
			entry: entry(sda1, "/", "auto", 1),
			probe: func(string) (string, bool, error) {
				return "ext4", false, nil
			},
			ignored: false,
		},
		{
			name:  "ambiguous probe",
			entry: entry(sda1, "/", "auto", 1),
			probe: func(string) (string, bool, error) {
				return "", true, nil
			},
			ignored: true,
		},
		{
			name:    "always-ignored type",
			entry:   entry(sda1, "/cdrom", "iso9660", 1),
			ignored: true,
		},
		{
			name:    "network filesystem",
			entry:   entry("server:/export", "/mnt", "nfs", 1),
			ignored: true,
		},
		{
			name:    "pseudo filesystem",
			entry:   entry("proc", "/proc", "proc", 1),
			ignored: true,
		},
		{
			name:    "swap",
			entry:   entry(sda1, "none", "swap", 1),
			ignored: true,
		},
		{
			name:    "no helper, strongly wanted",
			entry:   entry(sda1, "/", "reiserfs", 1),
			ignored: true,
		},
		{
			name:    "no helper, not strongly wanted",
			entry:   entry(sda1, "/win", "vfat", 1),
			ignored: true,
		},
		{
			name:    "checkable",
			entry:   entry(sda1, "/", "ext4", 1),
			ignored: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := rig.config()
			if tt.filter != "" {
				f, err := CompileTypeFilter(tt.filter)
				if err != nil {
					t.Fatal(err)
				}
				cfg.Filter = f
			}
			if tt.probe != nil {
				cfg.Probe = tt.probe
			}
			c := New(cfg, []*fstab.Entry{tt.entry})
			if got := c.isIgnored(c.entries[0]); got != tt.ignored {
				t.Errorf("isIgnored = %v, want %v", got, tt.ignored)
			}
		})
	}
}

// isIgnored must be a pure function of the entry and environment.
func TestIsIgnoredDeterministic(t *testing.T) {
	rig := newTestRig(t)
	sda1 := rig.addDevice("sda1", blockdev.DiskID{Major: 8, Minor: 0})
	c := New(rig.config(), []*fstab.Entry{entry(sda1, "/", "ext4", 1)})
	first := c.isIgnored(c.entries[0])
	for i := 0; i < 5; i++ {
		if got := c.isIgnored(c.entries[0]); got != first {
			t.Fatalf("isIgnored changed its mind on run %d", i)
		}
	}
}

func TestInterpretType(t *testing.T) {
	rig := newTestRig(t)
	sda1 := rig.addDevice("sda1", blockdev.DiskID{Major: 8, Minor: 0})

	// Declared type wins without probing.
	c := New(rig.config(), []*fstab.Entry{entry(sda1, "/", "ext4", 1)})
	if got := c.interpretType(c.entries[0]); got != "ext4" {
		t.Errorf("interpretType = %q, want ext4", got)
	}

	// "auto" probes, and the result is memoized.
	probes := 0
	cfg := rig.config()
	cfg.Probe = func(string) (string, bool, error) {
		probes++
		return "xfs", false, nil
	}
	c = New(cfg, []*fstab.Entry{entry(sda1, "/", "auto", 1)})
	for i := 0; i < 3; i++ {
		if got := c.interpretType(c.entries[0]); got != "xfs" {
			t.Errorf("interpretType = %q, want xfs", got)
		}
	}
	if probes != 1 {
		t.Errorf("probed %d times, want 1", probes)
	}
}
