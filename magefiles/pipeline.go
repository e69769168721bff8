//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest runs a harvest for the topic in $TOPIC, writing to output/.
func Harvest() error {
	mg.Deps(Build, Init)
	topic := os.Getenv("TOPIC")
	if topic == "" {
		return fmt.Errorf("set TOPIC to the search topic")
	}
	return sh.RunV(filepath.Join(binDir, binName), "harvest",
		"--topic", topic,
		"--output", "output/harvest_corpus.csv",
		"--manifest", "output/harvest_manifest.yaml",
		"--db", "output/corpus.db")
}

// Scrub cleans every PDF and DOCX under input/, writing to output/.
func Scrub() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "scrub", "input",
		"--output", "output/scrub_corpus.csv",
		"--manifest", "output/scrub_manifest.yaml",
		"--db", "output/corpus.db")
}
