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
	"fmt"
	"strings"
)

type termKind int

const (
	typeTerm termKind = iota
	negTypeTerm
	optTerm
	negOptTerm
)

type filterTerm struct {
	kind termKind
	text string
}

// A TypeFilter is the compiled form of the -t selector: a comma list of
// type names, "no"/"!"-negated type names, opts=X / noopts=X option
// terms, and the literal "loop" (shorthand for opts=loop). A nil filter
// matches every entry.
type TypeFilter struct {
	terms       []filterTerm
	hasTypes    bool
	negateTypes bool
}

// CompileTypeFilter parses a -t selector. Mixing negated and plain type
// names is a user error.
func CompileTypeFilter(selector string) (*TypeFilter, error) {
	f := new(TypeFilter)
	sawPlain, sawNegated := false, false
	for _, item := range strings.Split(selector, ",") {
		if item == "" {
			continue
		}
		negated := false
		switch {
		case strings.HasPrefix(item, "no"):
			negated = true
			item = item[len("no"):]
		case strings.HasPrefix(item, "!"):
			negated = true
			item = item[len("!"):]
		}
		if item == "loop" {
			item = "opts=loop"
		}
		if opt, ok := strings.CutPrefix(item, "opts="); ok {
			kind := optTerm
			if negated {
				kind = negOptTerm
			}
			f.terms = append(f.terms, filterTerm{kind, opt})
			continue
		}
		if item == "" {
			return nil, fmt.Errorf("empty filesystem type in -t list")
		}
		kind := typeTerm
		if negated {
			kind = negTypeTerm
			sawNegated = true
		} else {
			sawPlain = true
		}
		f.hasTypes = true
		f.terms = append(f.terms, filterTerm{kind, item})
	}
	if sawPlain && sawNegated {
		return nil, fmt.Errorf("either all or none of the filesystem types passed to -t must be prefixed with 'no' or '!'")
	}
	f.negateTypes = sawNegated
	return f, nil
}

// Matches reports whether an entry with the given interpreted type and
// option predicate passes the filter.
func (f *TypeFilter) Matches(fstype string, hasOption func(string) bool) bool {
	if f == nil {
		return true
	}
	typeListed := false
	for _, t := range f.terms {
		switch t.kind {
		case optTerm:
			if !hasOption(t.text) {
				return false
			}
		case negOptTerm:
			if hasOption(t.text) {
				return false
			}
		case typeTerm, negTypeTerm:
			if t.text == fstype {
				typeListed = true
			}
		}
	}
	if !f.hasTypes {
		return true
	}
	return typeListed != f.negateTypes
}

// SoleType returns the selector's type name when the filter consists of
// exactly one plain type term, which is then usable as the type to
// check an otherwise untyped entry as. Any other shape returns "".
func (f *TypeFilter) SoleType() string {
	if f == nil || len(f.terms) != 1 || f.terms[0].kind != typeTerm {
		return ""
	}
	return f.terms[0].text
}
