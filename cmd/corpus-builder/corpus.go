// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/store"
)

const defaultDBPath = "corpus.db"

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect saved corpora (search, stats)",
	Long: `Corpus reads the SQLite database written by harvest --db and scrub --db,
or a run manifest written with --manifest.`,
}

// --- search subcommand ---

var corpusSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCorpusSearch,
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	s, err := store.NewStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer s.Close()

	hits, err := s.Search(cmd.Context(), strings.Join(args, " "), viper.GetInt("limit"))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matching documents.")
		return nil
	}
	for i, h := range hits {
		year := ""
		if h.Year > 0 {
			year = fmt.Sprintf(" (%d)", h.Year)
		}
		fmt.Printf("%d. %s%s  [run %d, %d words]\n   %s\n   %s\n",
			i+1, h.Title, year, h.RunID, h.WordCount, h.SourceURL, h.Snippet)
	}
	return nil
}

// --- stats subcommand ---

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the corpus database or a run manifest",
	RunE:  runCorpusStats,
}

func runCorpusStats(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}

	if path := viper.GetString("manifest"); path != "" {
		m, err := corpus.ReadManifest(path)
		if err != nil {
			return err
		}
		fmt.Printf("Run: %s", m.Command)
		if m.Topic != "" {
			fmt.Printf(" %q", m.Topic)
		}
		if m.Stop != "" {
			fmt.Printf(" (stop: %s)", m.Stop)
		}
		fmt.Printf("\nCreated: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		if m.Error != "" {
			fmt.Printf("Error: %s\n", m.Error)
		}
		fmt.Println()
		corpus.FormatTable(m.Records(), os.Stdout)
		return nil
	}

	s, err := store.NewStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Stats(cmd.Context(), viper.GetInt("recent"))
	if err != nil {
		return err
	}
	search := "LIKE"
	if st.FTS {
		search = "FTS5"
	}
	fmt.Printf("Runs:           %d\n", st.Runs)
	fmt.Printf("Documents:      %d\n", st.Documents)
	fmt.Printf("Words:          %d\n", st.TotalWords)
	fmt.Printf("Unique sources: %d\n", st.UniqueSources)
	fmt.Printf("Search:         %s\n", search)
	if len(st.Recent) > 0 {
		fmt.Println("\nRecent runs:")
		for _, r := range st.Recent {
			topic := r.Topic
			if topic == "" {
				topic = "-"
			}
			fmt.Printf("  #%-4d %-8s %-30s %6d docs %10d words  %s\n",
				r.ID, r.Command, topic, r.Documents, r.TotalWords, r.CreatedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func init() {
	corpusSearchCmd.Flags().String("db", defaultDBPath, "corpus database path")
	corpusSearchCmd.Flags().Int("limit", 20, "maximum number of results")

	corpusStatsCmd.Flags().String("db", defaultDBPath, "corpus database path")
	corpusStatsCmd.Flags().String("manifest", "", "summarize a run manifest instead of the database")
	corpusStatsCmd.Flags().Int("recent", 5, "number of recent runs to list")

	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusStatsCmd)
	rootCmd.AddCommand(corpusCmd)
}
