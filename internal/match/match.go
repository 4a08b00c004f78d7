// Package match resolves free-text values, typically proposed by the AI
// assistant, against a finite option set.
package match

import "strings"

// Option is one allowed value of a closed field domain. Label is an optional
// display alias; it participates in matching on equal footing with Value.
type Option struct {
	Value string
	Label string
}

// Options builds an option list from plain values.
func Options(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v}
	}
	return out
}

// Resolve matches a candidate against options with a fixed precedence:
//
//  1. exact match on value or label
//  2. case-insensitive exact match
//  3. candidate is a substring of an option's value or label
//  4. an option's value or label is a substring of the candidate
//
// Substring comparison is case-insensitive. Within a tier the first option in
// catalog order wins. Returns the matched option (its original casing) and
// true, or ok=false when no tier matches.
func Resolve(candidate string, options []Option) (Option, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return Option{}, false
	}
	lower := strings.ToLower(candidate)

	for _, opt := range options {
		if candidate == opt.Value || candidate == opt.Label {
			return opt, true
		}
	}
	for _, opt := range options {
		if lower == strings.ToLower(opt.Value) || (opt.Label != "" && lower == strings.ToLower(opt.Label)) {
			return opt, true
		}
	}
	for _, opt := range options {
		if strings.Contains(strings.ToLower(opt.Value), lower) ||
			(opt.Label != "" && strings.Contains(strings.ToLower(opt.Label), lower)) {
			return opt, true
		}
	}
	for _, opt := range options {
		if opt.Value != "" && strings.Contains(lower, strings.ToLower(opt.Value)) {
			return opt, true
		}
		if opt.Label != "" && strings.Contains(lower, strings.ToLower(opt.Label)) {
			return opt, true
		}
	}
	return Option{}, false
}
