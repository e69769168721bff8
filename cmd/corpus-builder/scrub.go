// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/extract"
	"github.com/pdiddy/corpus-builder/internal/scrub"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

var scrubCmd = &cobra.Command{
	Use:   "scrub [files or directories...]",
	Short: "Extract and clean local PDF and DOCX files",
	Long: `Scrub extracts text from local PDF and DOCX files, applies the selected
cleaning stages and writes the cleaned corpus. Directories are searched
recursively for .pdf and .docx files. Files that fail extraction or are
empty after cleaning are skipped.`,
	RunE: runScrub,
}

func init() {
	scrubCmd.Flags().String("pdf-backend", string(types.PDFLedongthuc), "PDF extractor: ledongthuc or pdfcpu")
	addCleaningFlags(scrubCmd, types.DefaultCleaningConfig())
	addOutputFlags(scrubCmd)

	rootCmd.AddCommand(scrubCmd)
}

func runScrub(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more files or directories")
	}
	if err := bindFlags(cmd); err != nil {
		return err
	}

	inputs, err := scrub.LoadInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no PDF or DOCX files found")
	}

	extractor, err := extract.New(types.PDFBackend(viper.GetString("pdf-backend")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &scrub.Scrubber{Extract: extractor, Progress: os.Stdout}
	res, runErr := s.Run(ctx, inputs, cleaningConfig())

	m := corpus.NewManifest("scrub", res.Records)
	m.Counts = res.Counts.Map()
	if runErr != nil {
		m.Error = runErr.Error()
	}
	if err := writeOutputs(context.Background(), outputConfig("scrub_corpus"), corpus.LayoutScrub, m, res.Records, os.Stdout); err != nil {
		return err
	}
	return runErr
}
