// Package strings parses the comma-separated lists accepted in configuration.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trimming each element and
// dropping blanks and repeats. Order of first appearance is kept.
//
//	SplitList(" k1:9092, k2:9092,,k1:9092")
//	// []string{"k1:9092", "k2:9092"}
func SplitList(v string) []string {
	return Dedupe(strings.Split(v, ","))
}

// Dedupe trims every element and removes blanks and duplicates, preserving
// order. An empty input is returned unchanged.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
