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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"diskcheck.org/pkg/blockdev"
	"diskcheck.org/pkg/fstab"
)

// fakeResolver maps devices to disks from fixed tables.
type fakeResolver struct {
	disks      map[string]blockdev.DiskID // device path -> whole disk
	slaves     map[blockdev.DiskID]int
	rotational map[blockdev.DiskID]bool
	names      map[blockdev.DiskID]string
}

func (r *fakeResolver) Resolve(spec string) string { return spec }

func (r *fakeResolver) WholeDisk(path string) (blockdev.DiskID, error) {
	if id, ok := r.disks[path]; ok {
		return id, nil
	}
	return blockdev.NoDisk, errors.New("unknown device")
}

func (r *fakeResolver) Slaves(id blockdev.DiskID) (int, error) {
	return r.slaves[id], nil
}

func (r *fakeResolver) Rotational(id blockdev.DiskID) (bool, error) {
	return r.rotational[id], nil
}

func (r *fakeResolver) DiskName(id blockdev.DiskID) (string, error) {
	if n, ok := r.names[id]; ok {
		return n, nil
	}
	return "", errors.New("unknown disk")
}

// testRig is a sandbox for driver tests: a helper script that logs its
// start and end times per device, a directory of fake device files, and
// a fake resolver assigning them to disks.
type testRig struct {
	t        *testing.T
	dir      string // control and log files
	devDir   string
	helpers  string // helper search dir
	resolver *fakeResolver
}

// The helper script plays fsck.<type>: it stamps start/end times, naps
// and exits as the per-device control files say.
const helperScript = `#!/bin/sh
trap ':' USR1
for a in "$@"; do last="$a"; done
n="$(basename "$last")"
echo "$@" > "$DCTEST_DIR/$n.args"
date +%s%N > "$DCTEST_DIR/$n.start"
if [ -f "$DCTEST_DIR/$n.sleep" ]; then
	sleep "$(cat "$DCTEST_DIR/$n.sleep")"
fi
date +%s%N > "$DCTEST_DIR/$n.end"
code=0
if [ -f "$DCTEST_DIR/$n.code" ]; then
	code="$(cat "$DCTEST_DIR/$n.code")"
fi
exit "$code"
`

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		t:       t,
		dir:     t.TempDir(),
		devDir:  t.TempDir(),
		helpers: t.TempDir(),
		resolver: &fakeResolver{
			disks:      make(map[string]blockdev.DiskID),
			slaves:     make(map[blockdev.DiskID]int),
			rotational: make(map[blockdev.DiskID]bool),
			names:      make(map[blockdev.DiskID]string),
		},
	}
	t.Setenv("DCTEST_DIR", rig.dir)
	for _, fstype := range []string{"ext2", "ext4", "xfs"} {
		if err := os.WriteFile(filepath.Join(rig.helpers, "fsck."+fstype), []byte(helperScript), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return rig
}

// addDevice creates a fake device node (a plain file) on the given
// disk and returns its path.
func (rig *testRig) addDevice(name string, disk blockdev.DiskID) string {
	rig.t.Helper()
	path := filepath.Join(rig.devDir, name)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		rig.t.Fatal(err)
	}
	rig.resolver.disks[path] = disk
	return path
}

func (rig *testRig) setSleep(device string, d time.Duration) {
	rig.ctl(device, "sleep", fmt.Sprintf("%.2f", d.Seconds()))
}

func (rig *testRig) setExitCode(device string, code int) {
	rig.ctl(device, "code", strconv.Itoa(code))
}

func (rig *testRig) ctl(device, kind, value string) {
	rig.t.Helper()
	name := filepath.Base(device) + "." + kind
	if err := os.WriteFile(filepath.Join(rig.dir, name), []byte(value+"\n"), 0644); err != nil {
		rig.t.Fatal(err)
	}
}

// stamp reads a nanosecond timestamp the helper script wrote.
func (rig *testRig) stamp(device, kind string) (int64, bool) {
	rig.t.Helper()
	name := filepath.Base(device) + "." + kind
	b, err := os.ReadFile(filepath.Join(rig.dir, name))
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		rig.t.Fatalf("bad %s stamp: %v", name, err)
	}
	return n, true
}

func (rig *testRig) start(device string) int64 {
	n, ok := rig.stamp(device, "start")
	if !ok {
		rig.t.Fatalf("%s never started", filepath.Base(device))
	}
	return n
}

func (rig *testRig) end(device string) int64 {
	n, ok := rig.stamp(device, "end")
	if !ok {
		rig.t.Fatalf("%s never finished", filepath.Base(device))
	}
	return n
}

// args returns the argument vector the helper saw for device.
func (rig *testRig) args(device string) string {
	rig.t.Helper()
	b, err := os.ReadFile(filepath.Join(rig.dir, filepath.Base(device)+".args"))
	if err != nil {
		rig.t.Fatalf("no args recorded for %s: %v", filepath.Base(device), err)
	}
	return strings.TrimSpace(string(b))
}

func (rig *testRig) ran(device string) bool {
	_, ok := rig.stamp(device, "start")
	return ok
}

// config returns a Config wired to the rig with sane test defaults.
func (rig *testRig) config() Config {
	return Config{
		SearchPath:    []string{rig.helpers},
		RuntimeDir:    filepath.Join(rig.dir, "run"),
		Resolver:      rig.resolver,
		Probe:         func(string) (string, bool, error) { return "", false, errors.New("no probing in tests") },
		MountedDevice: func(string) (bool, error) { return false, nil },
		Mounted:       func(string) (bool, error) { return false, nil },
		Logf:          rig.t.Logf,
	}
}

func entry(spec, file, fstype string, passNo int) *fstab.Entry {
	return &fstab.Entry{
		Spec:    spec,
		File:    file,
		Type:    fstype,
		Options: "defaults",
		PassNo:  passNo,
	}
}
