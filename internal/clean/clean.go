// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean normalizes extracted document text into plain research text.
// Stages run in a fixed order; disabled stages are skipped, never reordered.
package clean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// Character classes matching Unicode word, whitespace and digit characters.
// Go's \w, \s and \d are ASCII-only, which would strip accented letters and
// leave non-breaking spaces in place.
const (
	wordClass  = `\p{L}\p{N}_`
	spaceClass = `\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}`
	digitClass = `\p{Nd}`
)

var (
	// referencesRe matches a references heading on its own line and
	// everything after it.
	referencesRe = regexp.MustCompile(`(?is)(\n|\r)[` + spaceClass + `]*(references|bibliography|works cited)[` + spaceClass + `]*(\n|\r).*`)

	urlRe   = regexp.MustCompile(`http[^` + spaceClass + `]+|www\.[^` + spaceClass + `]+`)
	emailRe = regexp.MustCompile(`[^` + spaceClass + `]+@[^` + spaceClass + `]+`)

	// hyphenRe joins "respon- sibility" into "responsibility".
	hyphenRe = regexp.MustCompile(`([` + wordClass + `]+)-[` + spaceClass + `]+([` + wordClass + `]+)`)

	// authorYearRe matches (Smith, 2020) and (Smith et al., 2020).
	authorYearRe = regexp.MustCompile(`\([A-Za-z` + spaceClass + `\.,]+,?[` + spaceClass + `]?[` + digitClass + `]{4}\)`)

	// numericCiteRe matches [1], [12] and ranges such as [1-5] or [1–5].
	numericCiteRe = regexp.MustCompile(`\[[` + digitClass + `]+([–-][` + digitClass + `]+)?\]`)

	numberRe = regexp.MustCompile(`[` + digitClass + `]+`)
	punctRe  = regexp.MustCompile(`[^` + wordClass + spaceClass + `]`)
	spaceRe  = regexp.MustCompile(`[` + spaceClass + `]+`)
)

// Stage names, in application order.
const (
	StageCutReferences   = "cut_references"
	StageRemoveURLs      = "remove_urls"
	StageFixHyphenation  = "fix_hyphenation"
	StageRemoveCitations = "remove_citations"
	StageRemoveNumbers   = "remove_numbers"
	StageRemovePunct     = "remove_punctuation"
	StageLowercase       = "lowercase"
	StageCollapse        = "collapse_whitespace"
)

type stage struct {
	name    string
	enabled func(types.CleaningConfig) bool
	apply   func(string) string
}

var stages = []stage{
	{StageCutReferences, func(c types.CleaningConfig) bool { return c.CutReferences }, cutReferences},
	{StageRemoveURLs, func(c types.CleaningConfig) bool { return c.RemoveURLs }, removeURLs},
	{StageFixHyphenation, func(c types.CleaningConfig) bool { return c.FixHyphenation }, fixHyphenation},
	{StageRemoveCitations, func(c types.CleaningConfig) bool { return c.RemoveCitations }, removeCitations},
	{StageRemoveNumbers, func(c types.CleaningConfig) bool { return c.RemoveNumbers }, removeNumbers},
	{StageRemovePunct, func(c types.CleaningConfig) bool { return c.RemovePunct }, removePunct},
	{StageLowercase, func(c types.CleaningConfig) bool { return c.Lowercase }, strings.ToLower},
	{StageCollapse, func(types.CleaningConfig) bool { return true }, collapseWhitespace},
}

// StageNames returns the stage names in application order.
func StageNames() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

// Clean applies the enabled stages to text and returns the result.
func Clean(text string, cfg types.CleaningConfig) string {
	if text == "" {
		return ""
	}
	for _, s := range stages {
		if s.enabled(cfg) {
			text = s.apply(text)
		}
	}
	return text
}

// Output is the cleaned text with before/after character counts.
type Output struct {
	Text        string
	OriginalLen int
	CleanedLen  int
}

// Removed returns the number of characters dropped by cleaning.
func (o Output) Removed() int {
	return o.OriginalLen - o.CleanedLen
}

// Apply cleans text and reports its length before and after.
func Apply(text string, cfg types.CleaningConfig) Output {
	cleaned := Clean(text, cfg)
	return Output{
		Text:        cleaned,
		OriginalLen: utf8.RuneCountInString(text),
		CleanedLen:  utf8.RuneCountInString(cleaned),
	}
}

// Step is the text as it stood after one stage ran.
type Step struct {
	Stage string
	Text  string
}

// Trace runs the same pipeline as Clean and records the text after each
// enabled stage. The last step's text equals Clean(text, cfg).
func Trace(text string, cfg types.CleaningConfig) []Step {
	if text == "" {
		return nil
	}
	var steps []Step
	for _, s := range stages {
		if !s.enabled(cfg) {
			continue
		}
		text = s.apply(text)
		steps = append(steps, Step{Stage: s.name, Text: text})
	}
	return steps
}

func cutReferences(text string) string {
	return referencesRe.ReplaceAllString(text, "")
}

func removeURLs(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	return emailRe.ReplaceAllString(text, "")
}

func fixHyphenation(text string) string {
	return hyphenRe.ReplaceAllString(text, "${1}${2}")
}

func removeCitations(text string) string {
	text = authorYearRe.ReplaceAllString(text, "")
	return numericCiteRe.ReplaceAllString(text, "")
}

func removeNumbers(text string) string {
	return numberRe.ReplaceAllString(text, "")
}

// removePunct replaces punctuation with a space so adjacent words do not merge.
func removePunct(text string) string {
	return punctRe.ReplaceAllString(text, " ")
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
