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

// Package fsprobe guesses the filesystem type of a block device by
// sniffing well-known superblock magic numbers. It answers only the
// question diskcheck needs for "auto" entries: which check helper to
// run. It is nowhere near a full blkid.
package fsprobe

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
)

type magicEntry struct {
	offset int64
	magic  []byte
	fstype string
}

// Magic numbers from the respective on-disk format specifications.
// The ext family shares one magic and is told apart by feature flags
// (see extVariant).
var magicTable = []magicEntry{
	{0x438, []byte{0x53, 0xEF}, "ext2"}, // discriminated further below
	{0x410, []byte{0x7F, 0x13}, "minix"},
	{0x410, []byte{0x8F, 0x13}, "minix"},
	{0x410, []byte{0x68, 0x24}, "minix"},
	{0x410, []byte{0x78, 0x24}, "minix"},
	{0, []byte("XFSB"), "xfs"},
	{0x10040, []byte("_BHRfS_M"), "btrfs"},
	{0x10034, []byte("ReIsErFs"), "reiserfs"},
	{0x10034, []byte("ReIsEr2Fs"), "reiserfs"},
	{0x10034, []byte("ReIsEr3Fs"), "reiserfs"},
	{0x2034, []byte("ReIsErFs"), "reiserfs"},
	{0x8000, []byte("JFS1"), "jfs"},
	{3, []byte("NTFS    "), "ntfs"},
	{54, []byte("FAT1"), "vfat"},
	{82, []byte("FAT32"), "vfat"},
	{0xFF6, []byte("SWAP-SPACE"), "swap"},
	{0xFF6, []byte("SWAPSPACE2"), "swap"},
}

// readLen covers the deepest probe in magicTable (btrfs at 64KiB+64).
const readLen = 0x10040 + 8

// ext4 feature flags, from the ext4 superblock layout.
const (
	extCompatHasJournal  = 0x0004
	extIncompatExtents   = 0x0040
	extIncompat64Bit     = 0x0080
	extRoCompatHugeFile  = 0x0008
	extRoCompatGdtCsum   = 0x0010
	extRoCompatDirNlink  = 0x0020
	extRoCompatExtraIsiz = 0x0040
)

// Probe sniffs the filesystem type on device. It returns the type name
// as used by fsck helper naming ("ext4", "xfs", ...); ambiguous is true
// when more than one distinct type matched, in which case the caller
// should not trust fstype. An unrecognized device yields ("", false, nil).
func Probe(device string) (fstype string, ambiguous bool, err error) {
	f, err := os.Open(device)
	if err != nil {
		return "", false, err
	}
	defer f.Close()
	return probe(f)
}

func probe(r io.Reader) (fstype string, ambiguous bool, err error) {
	buf := make([]byte, readLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", false, err
	}
	buf = buf[:n]

	for _, ent := range magicTable {
		end := ent.offset + int64(len(ent.magic))
		if end > int64(len(buf)) {
			continue
		}
		if !bytes.Equal(buf[ent.offset:end], ent.magic) {
			continue
		}
		t := ent.fstype
		if t == "ext2" {
			t = extVariant(buf)
		}
		if fstype != "" && fstype != t {
			return "", true, nil
		}
		fstype = t
	}
	return fstype, false, nil
}

// extVariant tells ext2, ext3 and ext4 apart by superblock feature
// flags, the same discrimination blkid performs.
func extVariant(buf []byte) string {
	const sb = 0x400
	if len(buf) < sb+104 {
		return "ext2"
	}
	compat := binary.LittleEndian.Uint32(buf[sb+92:])
	incompat := binary.LittleEndian.Uint32(buf[sb+96:])
	roCompat := binary.LittleEndian.Uint32(buf[sb+100:])

	if incompat&(extIncompatExtents|extIncompat64Bit) != 0 ||
		roCompat&(extRoCompatHugeFile|extRoCompatGdtCsum|extRoCompatDirNlink|extRoCompatExtraIsiz) != 0 {
		return "ext4"
	}
	if compat&extCompatHasJournal != 0 {
		return "ext3"
	}
	return "ext2"
}
