// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a local directory.
//
// Each regular file in the directory holds one value; the file name is the
// key. Recognized keys:
//
//	semantic-scholar-api-key  Semantic Scholar x-api-key header
//	openalex-email            OpenAlex polite pool mailto address
//
// Other files are loaded as well so new keys need no code change.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Key names understood by the CLI.
const (
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAlexEmail         = "openalex-email"
)

// Secrets maps key names to trimmed values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty set. Unreadable files are skipped with a warning.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := Secrets{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("key", name).Msg("skipping unreadable secret")
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s[name] = v
		}
	}
	return s, nil
}

// Get returns the value for key, or fallback when fallback is non-empty.
// Explicit flag and config values therefore win over secret files.
func (s Secrets) Get(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}

// Keys returns the loaded key names in sorted order.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
