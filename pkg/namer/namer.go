// Package namer produces collision-free file names by adding or bumping a
// "(N)" counter right before the extension: "a.txt" becomes "a(1).txt",
// "a(1).txt" becomes "a(2).txt".
package namer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"subdump/pkg/dumperr"
)

var (
	counterPattern       = regexp.MustCompile(`\((\d+)\)`)
	legacyCounterPattern = regexp.MustCompile(`\(\d\)`)
)

// Resolver generates candidate names.
// The zero value bumps counters of any width.
type Resolver struct {
	// LegacyCounter only recognizes single-digit counters and bumps them by
	// character arithmetic, so "(9)" becomes "(:)". Multi-digit counters are
	// not recognized and get a fresh "(1)" appended.
	LegacyCounter bool
}

// NextCandidate returns the name to try after name collided.
func (r Resolver) NextCandidate(name string) string {
	stem, ext := splitExt(name)

	bump := bumpCounter
	if r.LegacyCounter {
		bump = bumpLegacyCounter
	}

	if next, ok := bump(stem); ok {
		return next + ext
	}

	return stem + "(1)" + ext
}

// ResolveUniqueName returns the first name, starting with name itself, for
// which exists reports false.
func (r Resolver) ResolveUniqueName(name string, exists func(string) bool) (string, error) {
	const op = "resolve unique name"

	if name == "" {
		return "", dumperr.NullInput(op, "filename")
	}
	if exists == nil {
		return "", dumperr.NullInput(op, "existence check")
	}

	candidate := name
	for exists(candidate) {
		candidate = r.NextCandidate(candidate)
	}

	return candidate, nil
}

// NextCandidate is Resolver{}.NextCandidate.
func NextCandidate(name string) string {
	return Resolver{}.NextCandidate(name)
}

// ResolveUniqueName is Resolver{}.ResolveUniqueName.
func ResolveUniqueName(name string, exists func(string) bool) (string, error) {
	return Resolver{}.ResolveUniqueName(name, exists)
}

// splitExt splits at the last dot. A name without a dot has no extension;
// ".gitignore" is all extension.
func splitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func bumpCounter(stem string) (string, bool) {
	matches := counterPattern.FindAllStringSubmatchIndex(stem, -1)
	if len(matches) == 0 {
		return "", false
	}

	m := matches[len(matches)-1]
	digitsStart, digitsEnd := m[2], m[3]

	n, err := strconv.Atoi(stem[digitsStart:digitsEnd])
	if err != nil || n == math.MaxInt {
		return "", false
	}

	return stem[:digitsStart] + strconv.Itoa(n+1) + stem[digitsEnd:], true
}

func bumpLegacyCounter(stem string) (string, bool) {
	matches := legacyCounterPattern.FindAllStringIndex(stem, -1)
	if len(matches) == 0 {
		return "", false
	}

	digit := matches[len(matches)-1][0] + 1

	return stem[:digit] + string(stem[digit]+1) + stem[digit+1:], true
}
