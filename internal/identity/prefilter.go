package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	minNameRun = 2
	maxNameRun = 20
)

// ErrImplausibleSubject marks subjects rejected before any source is queried.
var ErrImplausibleSubject = errors.New("subject does not look like a name")

var leadingDateStamp = regexp.MustCompile(`^[\[(]?(?:\d{4}[-./]\d{1,2}[-./]\d{1,2}|\d{8})[\])]?`)

// NormalizeSubject folds compatibility forms, strips one leading date stamp
// (1990-01-02, 1990.1.2, 19900102, optionally bracketed) and collapses
// whitespace.
func NormalizeSubject(subject string) string {
	text := strings.TrimSpace(norm.NFKC.String(subject))
	if loc := leadingDateStamp.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if rest == "" || !isASCIIDigit(rest[0]) {
			text = strings.TrimLeft(rest, " \t_-")
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// CheckSubject normalizes subject and requires at least one maximal run of
// CJK characters whose length is within the plausible name range. It returns
// the normalized subject, which becomes the seed keyword.
func CheckSubject(subject string) (string, error) {
	seed := NormalizeSubject(subject)
	if seed == "" {
		return "", fmt.Errorf("%w: empty after normalization", ErrImplausibleSubject)
	}
	longest := 0
	for _, run := range nameRuns(seed) {
		if run >= minNameRun && run <= maxNameRun {
			return seed, nil
		}
		longest = max(longest, run)
	}
	if longest == 0 {
		return "", fmt.Errorf("%w: no CJK characters in %q", ErrImplausibleSubject, seed)
	}
	return "", fmt.Errorf("%w: no CJK run of %d-%d characters in %q (longest %d)",
		ErrImplausibleSubject, minNameRun, maxNameRun, seed, longest)
}

// nameRuns returns the length in code points of every maximal CJK run that
// contains at least one letter.
func nameRuns(text string) []int {
	var (
		runs    []int
		length  int
		letters int
	)
	flush := func() {
		if letters > 0 {
			runs = append(runs, length)
		}
		length, letters = 0, 0
	}
	for _, r := range text {
		switch {
		case isCJKLetter(r):
			length++
			letters++
		case isCJKMark(r):
			length++
		default:
			flush()
		}
	}
	flush()
	return runs
}

func isCJKLetter(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

// isCJKMark covers the prolonged sound mark, middle dots and the iteration
// mark, which belong to the Common script but appear inside names.
func isCJKMark(r rune) bool {
	switch r {
	case 'ー', '・', '･', '々', '〆':
		return true
	}
	return false
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }
