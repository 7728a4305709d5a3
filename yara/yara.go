// Copyright (c) 2024 the authors
// Use of this source code is governed by a MIT license found in the LICENSE file.

// Package yara extracts YARA rules from model responses.
//
// The checks are structural only: a rule is never compiled.
package yara

import (
	"strings"
	"unicode"
)

const fence = "```"

// Extract returns the first YARA rule found in content. It tries a ```yara fence,
// then a generic fence holding rule-like text, then the braces following "rule ".
func Extract(content string) (string, bool) {
	for _, strategy := range []func(string) (string, bool){
		fromYaraBlock,
		fromGenericBlock,
		fromPlainText,
	} {
		if rule, ok := strategy(content); ok {
			return rule, true
		}
	}

	return "", false
}

// HasRule reports whether content carries a YARA rule.
func HasRule(content string) bool {
	_, ok := Extract(content)

	return ok
}

// Validate reports whether rule has the parts every YARA rule needs.
func Validate(rule string) bool {
	return looksLikeRule(rule) && strings.Contains(rule, "condition")
}

// RuleName returns the identifier following "rule ".
func RuleName(rule string) (string, bool) {
	_, after, found := strings.Cut(rule, "rule ")
	if !found {
		return "", false
	}
	end := strings.IndexFunc(after, func(r rune) bool {
		return unicode.IsSpace(r) || r == '{'
	})
	if end < 0 {
		return "", false
	}
	name := strings.TrimSpace(after[:end])

	return name, name != ""
}

func fromYaraBlock(content string) (string, bool) {
	start := strings.Index(content, fence+"yara")
	if start < 0 {
		return "", false
	}

	return fenced(content, start+len(fence)+len("yara"))
}

func fromGenericBlock(content string) (string, bool) {
	start := strings.Index(content, fence)
	if start < 0 {
		return "", false
	}
	rule, ok := fenced(content, start+len(fence))
	if !ok || !looksLikeRule(rule) {
		return "", false
	}

	return rule, true
}

func fromPlainText(content string) (string, bool) {
	if !looksLikeRule(content) {
		return "", false
	}
	start := strings.Index(content, "rule ")

	depth := 0
	for i, r := range content[start:] {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(content[start : start+i+1]), true
			}
		}
	}

	return "", false
}

// fenced returns the text from the line after pos up to the next fence.
func fenced(content string, pos int) (string, bool) {
	if newline := strings.IndexByte(content[pos:], '\n'); newline >= 0 {
		pos += newline + 1
	}
	end := strings.Index(content[pos:], fence)
	if end < 0 {
		return "", false
	}

	return strings.TrimSpace(content[pos : pos+end]), true
}

func looksLikeRule(content string) bool {
	return strings.Contains(content, "rule ") && strings.Contains(content, "{") && strings.Contains(content, "}")
}
