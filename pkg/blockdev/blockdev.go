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

// Package blockdev resolves mount-table source specifiers to block
// device paths and answers sysfs questions about the disks behind them:
// which whole disk a partition belongs to, whether that disk is stacked
// over slave devices, and whether it is rotational.
package blockdev

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/unix"
)

// DiskID identifies a whole disk by its device number. The zero value
// means "no disk": network and pseudo filesystems, or resolution failure.
type DiskID struct {
	Major, Minor uint32
}

// NoDisk is the DiskID of anything with no underlying local disk.
var NoDisk = DiskID{}

func (id DiskID) IsZero() bool { return id == NoDisk }

func (id DiskID) String() string {
	return fmt.Sprintf("%d:%d", id.Major, id.Minor)
}

// A Resolver maps source specifiers to devices and devices to disks.
// Its methods are safe for concurrent use. The zero value uses the real
// /dev and /sys; tests point the roots at fabricated trees.
type Resolver struct {
	DevRoot   string // defaults to "/dev"
	SysfsRoot string // defaults to "/sys"

	mu       sync.Mutex
	tagCache map[string]string // "LABEL=x" -> resolved path
	single   singleflight.Group
}

func (r *Resolver) devRoot() string {
	if r.DevRoot != "" {
		return r.DevRoot
	}
	return "/dev"
}

func (r *Resolver) sysfsRoot() string {
	if r.SysfsRoot != "" {
		return r.SysfsRoot
	}
	return "/sys"
}

// tagPrefixes maps the specifier prefixes of blkid tags to the
// /dev/disk/by-* directory serving them.
var tagPrefixes = map[string]string{
	"LABEL":     "by-label",
	"UUID":      "by-uuid",
	"PARTLABEL": "by-partlabel",
	"PARTUUID":  "by-partuuid",
	"ID":        "by-id",
}

// Resolve canonicalizes a source specifier: LABEL=/UUID=-style tags go
// through the /dev/disk/by-* symlink farm, anything else through
// symlink evaluation. If resolution fails the specifier is returned
// unchanged, per the caller's "warn but keep going" policy.
func (r *Resolver) Resolve(spec string) string {
	if tag, value, ok := strings.Cut(spec, "="); ok {
		if dir, ok := tagPrefixes[tag]; ok {
			if p, err := r.resolveTag(spec, dir, value); err == nil {
				return p
			}
			return spec
		}
	}
	p, err := filepath.EvalSymlinks(spec)
	if err != nil {
		return spec
	}
	return p
}

func (r *Resolver) resolveTag(spec, dir, value string) (string, error) {
	r.mu.Lock()
	if p, ok := r.tagCache[spec]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	v, err, _ := r.single.Do(spec, func() (interface{}, error) {
		link := filepath.Join(r.devRoot(), "disk", dir, value)
		p, err := filepath.EvalSymlinks(link)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		if r.tagCache == nil {
			r.tagCache = make(map[string]string)
		}
		r.tagCache[spec] = p
		r.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// WholeDisk returns the DiskID of the whole disk containing the block
// device at path. For a partition that is the parent disk; for an
// unpartitioned or stacked device it is the device itself.
func (r *Resolver) WholeDisk(path string) (DiskID, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return NoDisk, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return NoDisk, fmt.Errorf("%s: not a block device", path)
	}
	rdev := uint64(st.Rdev)
	id := DiskID{unix.Major(rdev), unix.Minor(rdev)}

	// /sys/dev/block/<maj>:<min> is a symlink into the device tree;
	// a partition's directory sits below its disk's.
	devDir, err := filepath.EvalSymlinks(filepath.Join(r.sysfsRoot(), "dev", "block", id.String()))
	if err != nil {
		// No sysfs knowledge; treat the node itself as the disk.
		return id, nil
	}
	if _, err := os.Stat(filepath.Join(devDir, "partition")); err == nil {
		devDir = filepath.Dir(devDir)
	}
	b, err := os.ReadFile(filepath.Join(devDir, "dev"))
	if err != nil {
		return id, nil
	}
	whole, err := parseDevNum(strings.TrimSpace(string(b)))
	if err != nil {
		return id, nil
	}
	return whole, nil
}

func parseDevNum(s string) (DiskID, error) {
	majs, mins, ok := strings.Cut(s, ":")
	if !ok {
		return NoDisk, fmt.Errorf("bad device number %q", s)
	}
	maj, err := strconv.ParseUint(majs, 10, 32)
	if err != nil {
		return NoDisk, fmt.Errorf("bad device number %q", s)
	}
	min, err := strconv.ParseUint(mins, 10, 32)
	if err != nil {
		return NoDisk, fmt.Errorf("bad device number %q", s)
	}
	return DiskID{uint32(maj), uint32(min)}, nil
}

// diskDir returns the sysfs directory of the whole disk id.
func (r *Resolver) diskDir(id DiskID) (string, error) {
	return filepath.EvalSymlinks(filepath.Join(r.sysfsRoot(), "dev", "block", id.String()))
}

// Slaves returns how many slave devices the disk is composed over.
// Zero means the disk is not stacked. A disk sysfs has no knowledge of
// is reported as having none.
func (r *Resolver) Slaves(id DiskID) (int, error) {
	dir, err := r.diskDir(id)
	if err != nil {
		return 0, nil
	}
	names, err := os.ReadDir(filepath.Join(dir, "slaves"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(names), nil
}

// Rotational reports whether the disk has mechanical platters, per its
// sysfs queue attribute. Disks without the attribute count as
// non-rotational: there is nothing to seek on.
func (r *Resolver) Rotational(id DiskID) (bool, error) {
	dir, err := r.diskDir(id)
	if err != nil {
		return false, err
	}
	b, err := os.ReadFile(filepath.Join(dir, "queue", "rotational"))
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(b)) == "1", nil
}

// DiskName returns the kernel name of the disk ("sda", "dm-0"), used to
// name its lock file.
func (r *Resolver) DiskName(id DiskID) (string, error) {
	dir, err := r.diskDir(id)
	if err != nil {
		return "", fmt.Errorf("no sysfs entry for disk %v: %v", id, err)
	}
	return filepath.Base(dir), nil
}
