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

package buildinfo

import "testing"

func TestSummary(t *testing.T) {
	defer func() { Version = ""; GitInfo = "" }()

	tests := []struct {
		version, git string
		want         string
	}{
		{"", "", "unknown"},
		{"1.0", "", "1.0"},
		{"", "abcdef", "abcdef"},
		{"1.0", "abcdef", "1.0, abcdef"},
	}
	for _, tt := range tests {
		Version, GitInfo = tt.version, tt.git
		if got := Summary(); got != tt.want {
			t.Errorf("Summary() with (%q, %q) = %q, want %q", tt.version, tt.git, got, tt.want)
		}
	}
}
