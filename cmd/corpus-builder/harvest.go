// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/extract"
	"github.com/pdiddy/corpus-builder/internal/fetch"
	"github.com/pdiddy/corpus-builder/internal/harvest"
	"github.com/pdiddy/corpus-builder/internal/search"
	"github.com/pdiddy/corpus-builder/internal/secrets"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Search, download and extract papers until a word target is reached",
	Long: `Harvest pages through a bibliographic search API for papers on a topic,
downloads each candidate document, extracts its text and keeps documents
above a minimum length until the corpus reaches the target word count.

Search failures end the run; documents gathered so far are still written.
Per-document download and extraction failures are counted and skipped.`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.String("topic", "", "search topic (required)")
	f.Int("year-from", 0, "earliest publication year (0 for open)")
	f.Int("year-to", 0, "latest publication year (0 for open)")
	f.Int("batch-size", types.DefaultBatchSize, "results requested per search page")
	f.Int("target-words", types.DefaultTargetWords, "stop once the corpus holds this many words")
	f.String("backend", "semantic", "search backend: semantic, openalex or arxiv")
	f.String("pdf-backend", string(types.PDFLedongthuc), "PDF extractor: ledongthuc or pdfcpu")
	f.Int("min-chars", types.DefaultMinTextLength, "characters a document must exceed to be kept")
	f.Duration("page-delay", types.DefaultPageDelay, "pause between search pages")
	f.Duration("timeout", types.DefaultFetchTimeout, "document download timeout")
	f.Duration("search-timeout", types.DefaultSearchTimeout, "search request timeout")
	f.Bool("open-access", true, "ask the search service for open-access works only")
	f.Bool("require-pdf", false, "reject downloads not served as application/pdf")
	f.Bool("follow-landing", true, "follow citation_pdf_url links on HTML landing pages")
	f.Bool("clean", false, "clean extracted text before storing it")
	f.String("semantic-scholar-api-key", "", "Semantic Scholar API key (default from .secrets/)")
	f.String("openalex-email", "", "contact address for the OpenAlex polite pool (default from .secrets/)")
	addCleaningFlags(harvestCmd, types.DefaultCleaningConfig())
	addOutputFlags(harvestCmd)

	rootCmd.AddCommand(harvestCmd)
}

// parseBackend accepts the short CLI names and the config identifiers.
func parseBackend(name string) (types.SearchBackend, error) {
	switch name {
	case "semantic", "semantic_scholar", "":
		return types.BackendSemanticScholar, nil
	case "openalex":
		return types.BackendOpenAlex, nil
	case "arxiv":
		return types.BackendArxiv, nil
	default:
		return "", fmt.Errorf("unknown backend %q: use semantic, openalex or arxiv", name)
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}

	hcfg := types.HarvestConfig{
		Topic:         viper.GetString("topic"),
		YearFrom:      viper.GetInt("year-from"),
		YearTo:        viper.GetInt("year-to"),
		BatchSize:     viper.GetInt("batch-size"),
		TargetWords:   viper.GetInt("target-words"),
		MinTextLength: viper.GetInt("min-chars"),
		PageDelay:     viper.GetDuration("page-delay"),
		Clean:         viper.GetBool("clean"),
		Cleaning:      cleaningConfig(),
	}
	if hcfg.Topic == "" {
		return fmt.Errorf("--topic is required")
	}

	backend, err := parseBackend(viper.GetString("backend"))
	if err != nil {
		return err
	}
	scfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search-timeout"),
			UserAgent: types.APIUserAgent,
		},
		Backend:               backend,
		SemanticScholarAPIKey: loadedSecrets.Get(secrets.SemanticScholarAPIKey, viper.GetString("semantic-scholar-api-key")),
		OpenAlexEmail:         loadedSecrets.Get(secrets.OpenAlexEmail, viper.GetString("openalex-email")),
		OpenAccessOnly:        viper.GetBool("open-access"),
	}
	searcher, err := search.New(scfg, nil)
	if err != nil {
		return err
	}

	fetcher := fetch.New(types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: types.BrowserUserAgent,
		},
		RequirePDF:         viper.GetBool("require-pdf"),
		FollowLandingPages: viper.GetBool("follow-landing"),
		MaxBytes:           types.DefaultMaxBytes,
	})

	extractor, err := extract.New(types.PDFBackend(viper.GetString("pdf-backend")))
	if err != nil {
		return err
	}

	out := outputConfig("harvest_corpus")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &harvest.Harvester{
		Search:   searcher,
		Fetch:    fetcher,
		Extract:  extractor,
		Progress: os.Stdout,
	}
	fmt.Printf("Harvesting %q via %s (target %d words)\n", hcfg.Topic, searcher.Name(), hcfg.TargetWords)
	res, runErr := h.Run(ctx, hcfg)
	if runErr != nil && res.Stop == "" {
		// Invalid configuration: nothing was attempted.
		return runErr
	}

	m := corpus.NewManifest("harvest", res.Records)
	m.Topic = hcfg.Topic
	m.Stop = string(res.Stop)
	m.Counts = res.Counts.Map()
	if runErr != nil {
		m.Error = runErr.Error()
	}

	// Partial results are written even when the run ended on an error.
	if err := writeOutputs(context.Background(), out, corpus.LayoutHarvest, m, res.Records, os.Stdout); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
