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

package fsprobe

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// image builds a disk image of readLen zero bytes with the given
// patches applied.
func image(patch map[int64][]byte) []byte {
	buf := make([]byte, readLen)
	for off, b := range patch {
		copy(buf[off:], b)
	}
	return buf
}

func extImage(compat, incompat, roCompat uint32) []byte {
	buf := image(map[int64][]byte{0x438: {0x53, 0xEF}})
	binary.LittleEndian.PutUint32(buf[0x400+92:], compat)
	binary.LittleEndian.PutUint32(buf[0x400+96:], incompat)
	binary.LittleEndian.PutUint32(buf[0x400+100:], roCompat)
	return buf
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		fstype    string
		ambiguous bool
	}{
		{"empty", image(nil), "", false},
		{"ext2", extImage(0, 0, 0), "ext2", false},
		{"ext3", extImage(extCompatHasJournal, 0, 0), "ext3", false},
		{"ext4-extents", extImage(extCompatHasJournal, extIncompatExtents, 0), "ext4", false},
		{"ext4-rocompat", extImage(extCompatHasJournal, 0, extRoCompatHugeFile), "ext4", false},
		{"minix", image(map[int64][]byte{0x410: {0x7F, 0x13}}), "minix", false},
		{"xfs", image(map[int64][]byte{0: []byte("XFSB")}), "xfs", false},
		{"btrfs", image(map[int64][]byte{0x10040: []byte("_BHRfS_M")}), "btrfs", false},
		{"reiserfs", image(map[int64][]byte{0x10034: []byte("ReIsEr2Fs")}), "reiserfs", false},
		{"jfs", image(map[int64][]byte{0x8000: []byte("JFS1")}), "jfs", false},
		{"swap", image(map[int64][]byte{0xFF6: []byte("SWAPSPACE2")}), "swap", false},
		{"ambiguous", image(map[int64][]byte{
			0: []byte("XFSB"),
			0x8000: []byte("JFS1"),
		}), "", true},
		{"short", []byte{0x53, 0xEF}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fstype, ambiguous, err := probe(bytes.NewReader(tt.buf))
			if err != nil {
				t.Fatal(err)
			}
			if fstype != tt.fstype || ambiguous != tt.ambiguous {
				t.Errorf("probe = (%q, %v), want (%q, %v)", fstype, ambiguous, tt.fstype, tt.ambiguous)
			}
		})
	}
}

func TestProbeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img")
	if err := os.WriteFile(path, extImage(extCompatHasJournal, 0, 0), 0644); err != nil {
		t.Fatal(err)
	}
	fstype, ambiguous, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	if fstype != "ext3" || ambiguous {
		t.Errorf("Probe = (%q, %v), want (ext3, false)", fstype, ambiguous)
	}
	if _, _, err := Probe(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Probe of missing file succeeded")
	}
}
