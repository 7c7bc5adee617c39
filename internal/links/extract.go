// Package links derives the directed reference graph between notes from their bodies.
package links

import (
	"regexp"
	"strings"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Extract returns the referenced titles of body in order of first appearance.
// Duplicates are kept. [[Target|Alias]] yields Target; blank targets are skipped.
func Extract(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		out = append(out, target)
	}
	return out
}

// ReplaceMarkers rewrites every reference marker in body with the result of
// fn. label is the alias when present, otherwise the target.
func ReplaceMarkers(body string, fn func(target, label string) string) string {
	return wikilinkRe.ReplaceAllStringFunc(body, func(m string) string {
		inner := m[2 : len(m)-2]
		target, label, hasAlias := strings.Cut(inner, "|")
		target = strings.TrimSpace(target)
		if target == "" {
			return m
		}
		if !hasAlias || strings.TrimSpace(label) == "" {
			label = target
		}
		return fn(target, strings.TrimSpace(label))
	})
}

// Format renders a reference marker for title.
func Format(title string) string {
	return "[[" + title + "]]"
}
