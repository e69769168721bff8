// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

func allEnabled() types.CleaningConfig {
	cfg := types.DefaultCleaningConfig()
	cfg.Lowercase = true
	return cfg
}

// The hyphen stage joins "hello-\n world" into "helloworld", matching the
// preserved (\w+)-\s+(\w+) replacement.
func TestTraceScenario(t *testing.T) {
	input := "Smith (Jones, 2020) said [12] hello-\n world 123!"
	cfg := types.CleaningConfig{
		FixHyphenation:  true,
		RemoveCitations: true,
		RemoveNumbers:   true,
		RemovePunct:     true,
	}

	steps := Trace(input, cfg)
	require.Len(t, steps, 5)

	want := []Step{
		{StageFixHyphenation, "Smith (Jones, 2020) said [12] helloworld 123!"},
		{StageRemoveCitations, "Smith  said  helloworld 123!"},
		{StageRemoveNumbers, "Smith  said  helloworld !"},
		{StageRemovePunct, "Smith  said  helloworld  "},
		{StageCollapse, "Smith said helloworld"},
	}
	assert.Equal(t, want, steps)
	assert.Equal(t, "Smith said helloworld", Clean(input, cfg))
}

func TestStageOrderIsFixed(t *testing.T) {
	assert.Equal(t, []string{
		StageCutReferences,
		StageRemoveURLs,
		StageFixHyphenation,
		StageRemoveCitations,
		StageRemoveNumbers,
		StageRemovePunct,
		StageLowercase,
		StageCollapse,
	}, StageNames())
}

func TestCleanStages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cfg   types.CleaningConfig
		want  string
	}{
		{
			name:  "references cut at heading line",
			input: "Body text here.\nReferences\nSmith, J. (2020). A paper.",
			cfg:   types.CleaningConfig{CutReferences: true},
			want:  "Body text here.",
		},
		{
			name:  "bibliography heading case-insensitive",
			input: "Intro\n  BIBLIOGRAPHY  \nentries",
			cfg:   types.CleaningConfig{CutReferences: true},
			want:  "Intro",
		},
		{
			name:  "works cited heading",
			input: "Essay body\r\nWorks Cited\r\nMLA entry",
			cfg:   types.CleaningConfig{CutReferences: true},
			want:  "Essay body",
		},
		{
			name:  "inline references word is kept",
			input: "See the references below for details.",
			cfg:   types.CleaningConfig{CutReferences: true},
			want:  "See the references below for details.",
		},
		{
			name:  "no heading leaves text unchanged",
			input: "Nothing to cut",
			cfg:   types.CleaningConfig{CutReferences: true},
			want:  "Nothing to cut",
		},
		{
			name:  "urls and emails removed",
			input: "Visit https://example.org/a?b=1 or www.example.com and mail jane.doe@uni.edu today",
			cfg:   types.CleaningConfig{RemoveURLs: true},
			want:  "Visit or and mail today",
		},
		{
			name:  "hyphenation joined",
			input: "respon- sibility and soci-\nety",
			cfg:   types.CleaningConfig{FixHyphenation: true},
			want:  "responsibility and society",
		},
		{
			name:  "hyphen without whitespace untouched",
			input: "well-known fact",
			cfg:   types.CleaningConfig{FixHyphenation: true},
			want:  "well-known fact",
		},
		{
			name:  "et al citation removed",
			input: "as shown (Smith et al., 2019) before",
			cfg:   types.CleaningConfig{RemoveCitations: true},
			want:  "as shown before",
		},
		{
			name:  "ranged numeric citations removed",
			input: "prior work [1-5] and [3–4] and [7]",
			cfg:   types.CleaningConfig{RemoveCitations: true},
			want:  "prior work and and",
		},
		{
			name:  "non-citation parenthetical with year is also removed",
			input: "the census (Manila, 2015) counted",
			cfg:   types.CleaningConfig{RemoveCitations: true},
			want:  "the census counted",
		},
		{
			name:  "numbers removed",
			input: "volume 12 page 345",
			cfg:   types.CleaningConfig{RemoveNumbers: true},
			want:  "volume page",
		},
		{
			name:  "punctuation replaced by space",
			input: "end.Start",
			cfg:   types.CleaningConfig{RemovePunct: true},
			want:  "end Start",
		},
		{
			name:  "accented letters survive punctuation removal",
			input: "café, niño!",
			cfg:   types.CleaningConfig{RemovePunct: true},
			want:  "café niño",
		},
		{
			name:  "lowercase",
			input: "Mixed CASE",
			cfg:   types.CleaningConfig{Lowercase: true},
			want:  "mixed case",
		},
		{
			name:  "non-breaking space collapsed",
			input: "a\u00a0\u00a0b",
			cfg:   types.CleaningConfig{},
			want:  "a b",
		},
		{
			name:  "everything enabled",
			input: "Title (Doe, 2001) text-\n book [2] 3 items!\nReferences\nDoe 2001",
			cfg:   allEnabled(),
			want:  "title textbook items",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input, tt.cfg))
		})
	}
}

func TestCleanEmpty(t *testing.T) {
	assert.Equal(t, "", Clean("", allEnabled()))
	assert.Nil(t, Trace("", allEnabled()))
}

func TestCollapseOnlyPreservesContent(t *testing.T) {
	input := "  Some\ttext (Smith, 2020)\n\nwith [1] 42 marks!  "
	got := Clean(input, types.CleaningConfig{})
	assert.Equal(t, strings.Join(strings.Fields(input), " "), got)
}

func TestCleanIdempotentWithCollapseOnly(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"  lots   of\n\n space\t\t",
		"Smith (Jones, 2020) said [12] hello-\n world 123!",
	}
	for _, in := range inputs {
		once := Clean(in, types.CleaningConfig{})
		assert.Equal(t, once, Clean(once, types.CleaningConfig{}), "input %q", in)
	}
}

func TestCleanDeterministic(t *testing.T) {
	input := "Intro (Lee, 1999) with http://x.y and 12 items-\n here.\nReferences\nLee"
	configs := []types.CleaningConfig{
		{},
		allEnabled(),
		types.DefaultCleaningConfig(),
		{RemoveCitations: true, Lowercase: true},
	}
	for _, cfg := range configs {
		first := Clean(input, cfg)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Clean(input, cfg))
		}
		steps := Trace(input, cfg)
		require.NotEmpty(t, steps)
		assert.Equal(t, first, steps[len(steps)-1].Text)
	}
}

func TestApplyLengths(t *testing.T) {
	out := Apply("Café 123", types.CleaningConfig{RemoveNumbers: true})
	assert.Equal(t, "Café", out.Text)
	assert.Equal(t, 8, out.OriginalLen)
	assert.Equal(t, 4, out.CleanedLen)
	assert.Equal(t, 4, out.Removed())
}
