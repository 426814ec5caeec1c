// Package naming contains the naming rules shared by every zone of the
// directory tree. A domain path is resolved right to left: in "a.b.c" the
// label "c" names a child of the current zone and "a.b" is delegated to it.
package naming

import (
	"regexp"
	"strings"
)

var (
	domainPattern = regexp.MustCompile(`^[A-Za-z]+(\.[A-Za-z]+)*$`)
	labelPattern  = regexp.MustCompile(`^[A-Za-z]+$`)
)

const Separator = "."

func IsValidDomain(path string) bool {
	return domainPattern.MatchString(path)
}

func IsValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}

// SplitLast strips the rightmost label of path.
// delegated is false when path is a single label, in which case rest is empty.
func SplitLast(path string) (label, rest string, delegated bool) {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return path, "", false
	}
	return path[idx+1:], path[:idx], true
}

// Labels returns the dot-separated labels of name from left to right.
func Labels(name string) []string {
	return strings.Split(name, Separator)
}

// NormalizeLabel is the key under which a child zone is stored.
// Zone labels are case-insensitive.
func NormalizeLabel(label string) string {
	return strings.ToLower(label)
}
