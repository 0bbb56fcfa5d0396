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

package fstab

import (
	"github.com/moby/sys/mountinfo"
)

// getMounts is replaced by tests.
var getMounts = mountinfo.GetMounts

// MountedDevice reports whether the given block device is the source of
// any live mount. device should already be resolved to a real path.
func MountedDevice(device string) (bool, error) {
	infos, err := getMounts(nil)
	if err != nil {
		return false, err
	}
	for _, mi := range infos {
		if mi.Source == device {
			return true, nil
		}
	}
	return false, nil
}

// Mounted reports whether target is a live mount point.
func Mounted(target string) (bool, error) {
	return mountinfo.Mounted(target)
}
