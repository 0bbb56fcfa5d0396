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

// Package fstab parses the system mount table (fstab(5) format) into
// entries the diskcheck supervisor iterates over, and answers questions
// about filesystem type classes (network, pseudo, swap).
package fstab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is the mount table consulted when no override is given.
const DefaultPath = "/etc/fstab"

// Entry is one line of the mount table.
type Entry struct {
	Spec    string // first field: device path, LABEL=, UUID=, or similar
	File    string // mount point ("none" or empty for swap)
	Type    string // filesystem type; "auto" means unknown until probed
	Options string // comma-joined mount options
	Freq    int    // dump(8) frequency; unused here, kept for fidelity
	PassNo  int    // fsck pass number; 0 disables checking
}

// Line returns the entry formatted back in fstab field order,
// mostly for error messages.
func (e *Entry) Line() string {
	return fmt.Sprintf("%s %s %s %s %d %d", e.Spec, e.File, e.Type, e.Options, e.Freq, e.PassNo)
}

// HasOption reports whether name appears in the entry's comma-joined
// option list. A "opt=value" option matches its bare name too.
func (e *Entry) HasOption(name string) bool {
	for _, opt := range strings.Split(e.Options, ",") {
		if opt == name {
			return true
		}
		if k, _, ok := strings.Cut(opt, "="); ok && k == name {
			return true
		}
	}
	return false
}

// Parse reads a mount table from r. Malformed lines are reported through
// onErr (which may be nil) and skipped; parsing continues. The returned
// error is only for read failures.
func Parse(r io.Reader, onErr func(line int, err error)) ([]*Entry, error) {
	var entries []*Entry
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		e, err := parseLine(sc.Text())
		if err != nil {
			if onErr != nil {
				onErr(n, err)
			}
			continue
		}
		if e != nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("reading mount table: %v", err)
	}
	return entries, nil
}

// Load parses the mount table at path.
func Load(path string, onErr func(line int, err error)) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Parse(f, onErr)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return entries, nil
}

// parseLine returns (nil, nil) for blank and comment lines.
func parseLine(line string) (*Entry, error) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") {
		return nil, nil
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return nil, fmt.Errorf("bad mount table line %q", line)
	}
	e := &Entry{
		Spec:    unescape(fields[0]),
		File:    unescape(fields[1]),
		Type:    "auto",
		Options: "defaults",
	}
	if len(fields) > 2 {
		e.Type = fields[2]
	}
	if len(fields) > 3 {
		e.Options = fields[3]
	}
	var err error
	if len(fields) > 4 {
		if e.Freq, err = strconv.Atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("bad dump frequency %q in line %q", fields[4], line)
		}
	}
	if len(fields) > 5 {
		if e.PassNo, err = strconv.Atoi(fields[5]); err != nil || e.PassNo < 0 {
			return nil, fmt.Errorf("bad pass number %q in line %q", fields[5], line)
		}
	}
	return e, nil
}

// unescape decodes the octal escapes fstab(5) uses for whitespace in
// the spec and file fields (e.g. "\040" for space).
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			v := (s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0')
			b.WriteByte(v)
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

// LookupSpec returns the first entry whose source specifier is spec, or nil.
func LookupSpec(entries []*Entry, spec string) *Entry {
	for _, e := range entries {
		if e.Spec == spec {
			return e
		}
	}
	return nil
}

// LookupFile returns the first entry mounted at file, or nil.
func LookupFile(entries []*Entry, file string) *Entry {
	for _, e := range entries {
		if e.File == file {
			return e
		}
	}
	return nil
}

var networkTypes = map[string]bool{
	"afs":        true,
	"ceph":       true,
	"cifs":       true,
	"coda":       true,
	"gfs":        true,
	"gfs2":       true,
	"glusterfs":  true,
	"ncp":        true,
	"ncpfs":      true,
	"nfs":        true,
	"nfs3":       true,
	"nfs4":       true,
	"smb3":       true,
	"smbfs":      true,
	"sshfs":      true,
	"virtiofs":   true,
	"9p":         true,
	"fuse.sshfs": true,
}

var pseudoTypes = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devpts":      true,
	"devtmpfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"overlay":     true,
	"proc":        true,
	"pstore":      true,
	"ramfs":       true,
	"securityfs":  true,
	"spufs":       true,
	"sysfs":       true,
	"tmpfs":       true,
	"tracefs":     true,
}

// IsNetwork reports whether fstype is served over the network rather
// than by a local block device.
func IsNetwork(fstype string) bool {
	return networkTypes[fstype] || strings.HasPrefix(fstype, "nfs")
}

// IsPseudo reports whether fstype is a kernel pseudo filesystem with no
// backing device.
func IsPseudo(fstype string) bool { return pseudoTypes[fstype] }

// IsSwap reports whether fstype is swap space.
func IsSwap(fstype string) bool { return fstype == "swap" }
