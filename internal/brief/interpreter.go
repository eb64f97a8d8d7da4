// Package brief turns free-text campaign briefs into structured preferences.
//
// The interpreter is intentionally shallow: a lexical trigger for the
// pipeline's coarse pre-filter, not a classifier.
package brief

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Preferences is the structured reading of one brief.
type Preferences struct {
	// MinSubscribers is zero when the brief contains no quantity phrase.
	MinSubscribers int64
	// Keywords holds matched vocabulary terms, lower-cased and deduplicated.
	Keywords []string
}

var (
	minSubsPattern = regexp.MustCompile(`(?i)at least\s*(\d+)\s*(k\b)?`)
	keywordPattern = regexp.MustCompile(`(?i)\b(bike|biking|riding|cycle|cycling|vlog|vloggers?)\b`)
)

// Interpret parses a brief. It is total: unrecognized input yields zero
// values, never an error.
func Interpret(briefText string) Preferences {
	return Preferences{
		MinSubscribers: extractMinSubscribers(briefText),
		Keywords:       extractKeywords(briefText),
	}
}

// extractMinSubscribers reads the first "at least N" phrase. A trailing
// case-insensitive "k" multiplies by 1000; the suffix must stand alone so
// the initial of a following word ("kilometers") is not a multiplier.
func extractMinSubscribers(briefText string) int64 {
	m := minSubsPattern.FindStringSubmatch(briefText)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	if m[2] != "" {
		n *= 1000
	}
	return n
}

func extractKeywords(briefText string) []string {
	seen := make(map[string]struct{})
	for _, m := range keywordPattern.FindAllStringSubmatch(briefText, -1) {
		seen[strings.ToLower(m[1])] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for kw := range seen {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
