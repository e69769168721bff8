// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/store"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

// addCleaningFlags registers the seven cleaning toggles with defaults from d.
func addCleaningFlags(cmd *cobra.Command, d types.CleaningConfig) {
	f := cmd.Flags()
	f.Bool("cut-references", d.CutReferences, "drop everything after a References/Bibliography heading")
	f.Bool("remove-urls", d.RemoveURLs, "remove URLs (http..., www.) and email addresses")
	f.Bool("fix-hyphenation", d.FixHyphenation, "join words split by a hyphen and line break")
	f.Bool("remove-citations", d.RemoveCitations, "remove parenthetical author-year citations")
	f.Bool("remove-numbers", d.RemoveNumbers, "remove digits")
	f.Bool("remove-punctuation", d.RemovePunct, "remove punctuation")
	f.Bool("lowercase", d.Lowercase, "lowercase the text")
}

// cleaningConfig reads the toggles registered by addCleaningFlags.
func cleaningConfig() types.CleaningConfig {
	return types.CleaningConfig{
		CutReferences:   viper.GetBool("cut-references"),
		RemoveURLs:      viper.GetBool("remove-urls"),
		FixHyphenation:  viper.GetBool("fix-hyphenation"),
		RemoveCitations: viper.GetBool("remove-citations"),
		RemoveNumbers:   viper.GetBool("remove-numbers"),
		RemovePunct:     viper.GetBool("remove-punctuation"),
		Lowercase:       viper.GetBool("lowercase"),
	}
}

// addOutputFlags registers the dataset, manifest and database flags.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", string(types.FormatCSV), "dataset format: csv or zip")
	f.StringP("output", "o", "", "dataset path (default <command>_corpus.<format>)")
	f.String("manifest", "", "write a YAML run manifest to this path")
	f.String("db", "", "save the run to this SQLite corpus database")
}

// outputConfig reads the flags registered by addOutputFlags.
func outputConfig(stem string) types.OutputConfig {
	cfg := types.OutputConfig{
		Format:       types.OutputFormat(viper.GetString("format")),
		Path:         viper.GetString("output"),
		ManifestPath: viper.GetString("manifest"),
		DBPath:       viper.GetString("db"),
	}
	if cfg.Path == "" {
		cfg.Path = corpus.DefaultPath(stem, cfg.Format)
	}
	return cfg
}

// writeOutputs writes the dataset, the optional manifest and the optional
// database run for records, then prints the corpus table to w.
func writeOutputs(ctx context.Context, cfg types.OutputConfig, layout corpus.Layout, m corpus.Manifest, records []types.Record, w io.Writer) error {
	if err := corpus.WriteFile(cfg.Path, cfg.Format, layout, records); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d documents to %s\n", len(records), cfg.Path)

	if cfg.ManifestPath != "" {
		if err := corpus.WriteManifest(m, cfg.ManifestPath); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
		fmt.Fprintf(w, "Wrote manifest to %s\n", cfg.ManifestPath)
	}

	if cfg.DBPath != "" {
		s, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRun(ctx, m, records)
		if err != nil {
			return err
		}
		log.Debug().Int64("run", id).Str("db", cfg.DBPath).Bool("fts", s.FTS()).Msg("saved run")
		fmt.Fprintf(w, "Saved run %d to %s\n", id, cfg.DBPath)
	}

	fmt.Fprintln(w)
	corpus.FormatTable(records, w)
	return nil
}
