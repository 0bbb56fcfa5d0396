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

// Package osutil provides the operating-system-specific paths and
// environment knobs diskcheck observes.
package osutil

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// defaultSearchPath is where check helpers (fsck.<type>) are looked
// for, in order, when DISKCHECK_PATH is unset.
const defaultSearchPath = "/sbin:/usr/sbin:/sbin/fs.d:/sbin/fs:/etc/fs:/etc"

// RuntimeDir returns the directory holding per-disk lock files.
func RuntimeDir() string {
	if d := os.Getenv("DISKCHECK_RUNTIME_DIR"); d != "" {
		return d
	}
	return "/run/diskcheck"
}

// HelperSearchPath returns the colon-separated directory list searched
// for check helpers.
func HelperSearchPath() []string {
	p := os.Getenv("DISKCHECK_PATH")
	if p == "" {
		p = defaultSearchPath
	}
	var dirs []string
	for _, d := range strings.Split(p, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// MountTablePath returns the mount table to sweep: DISKCHECK_FSTAB if
// set, else /etc/fstab.
func MountTablePath() string {
	if p := os.Getenv("DISKCHECK_FSTAB"); p != "" {
		return p
	}
	return "/etc/fstab"
}

// ForceAllParallel reports whether the environment requests unlimited
// parallelism, overriding the spindle exclusion rule.
func ForceAllParallel() bool {
	return os.Getenv("DISKCHECK_FORCE_ALL_PARALLEL") != ""
}

// MaxInstances returns the environment's concurrency cap, or 0 if
// unset. A value that does not parse is warned about and ignored.
func MaxInstances() int {
	s := os.Getenv("DISKCHECK_MAX_INSTANCES")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Printf("ignoring non-numeric DISKCHECK_MAX_INSTANCES=%q", s)
		return 0
	}
	return n
}
