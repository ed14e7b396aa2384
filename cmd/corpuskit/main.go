// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpuskit"
	"github.com/poiesic/corpuskit/ai"
	"github.com/poiesic/corpuskit/core"
	"github.com/poiesic/corpuskit/search"
	"github.com/poiesic/corpuskit/vecindex"
)

func main() {
	// Flag defaults may come from the environment; a .env file is optional.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "corpuskit",
		Usage: "Versioned document corpus pipeline with lexical and vector retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "raw",
				Usage:   "Raw corpus root directory",
				Value:   "raw_data",
				EnvVars: []string{"CORPUSKIT_RAW_DIR"},
			},
			&cli.StringFlag{
				Name:    "processed",
				Usage:   "Processed corpus root directory",
				Value:   "processed_data",
				EnvVars: []string{"CORPUSKIT_PROCESSED_DIR"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fingerprint the raw tree and write a new corpus version",
				Action: ingestCommand,
			},
			{
				Name:   "normalize",
				Usage:  "Normalize one raw source into the latest version's record stream",
				Action: normalizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source name (subdirectory of the raw root)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "version-dir",
						Usage: "Version directory to write into (defaults to the latest)",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of extraction workers",
						Value:   1,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Lexical query over normalized record streams",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text; quoted segments are exact phrases",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "in",
						Usage: "Explicit JSONL file or directory (defaults to the latest version)",
					},
					&cli.StringSliceFlag{
						Name:  "source",
						Usage: "Restrict to source name (repeatable)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits",
						Value:   search.DefaultLimit,
					},
					&cli.StringFlag{
						Name:  "match",
						Usage: "Qualification mode (any, all)",
						Value: "any",
					},
					&cli.IntFlag{
						Name:  "scan-chars",
						Usage: "Per-record scoring window in bytes (negative for unbounded)",
						Value: search.DefaultScanChars,
					},
					&cli.IntFlag{
						Name:  "snippet-chars",
						Usage: "Snippet window size in runes",
						Value: search.DefaultSnippetChars,
					},
					&cli.BoolFlag{
						Name:  "no-snippet",
						Usage: "Omit snippets from hits",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit one JSON object per hit instead of human output",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Build a vector index over normalized record streams",
				Action: indexCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Index directory to create",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "in",
						Usage: "Explicit JSONL file or directory (defaults to the latest version)",
					},
					&cli.StringSliceFlag{
						Name:  "source",
						Usage: "Restrict to source name (repeatable)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records embedded per provider call",
						Value: vecindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-chars",
						Usage: "Per-record embedding input bound in bytes",
						Value: vecindex.DefaultMaxChars,
					},
					&cli.IntFlag{
						Name:  "log-every",
						Usage: "Progress report interval in records",
						Value: vecindex.DefaultLogEvery,
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace an existing index directory",
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "vsearch",
				Usage:  "Nearest-neighbor query against a built vector index",
				Action: vsearchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Index directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits",
						Value:   vecindex.DefaultSearchLimit,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Matrix rows scored per read",
						Value: vecindex.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "snippet-chars",
						Usage: "Snippet size in runes",
						Value: vecindex.DefaultSnippetChars,
					},
					&cli.StringSliceFlag{
						Name:  "source",
						Usage: "Restrict to source name (repeatable)",
					},
					&cli.IntFlag{
						Name:  "oversample",
						Usage: "Candidate multiplier when a source filter is active",
						Value: vecindex.DefaultOversample,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit one JSON object per hit instead of human output",
					},
				}, embeddingFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// embeddingFlags are shared by the commands that talk to the embedding
// provider.
func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"CORPUSKIT_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"CORPUSKIT_EMBEDDING_MODEL"},
		},
	}
}

func newCorpus(c *cli.Context) *corpuskit.Corpus {
	return corpuskit.New(c.String("raw"), c.String("processed"))
}

func newEmbeddingCorpus(c *cli.Context) (*corpuskit.Corpus, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}
	return corpuskit.New(c.String("raw"), c.String("processed"),
		corpuskit.WithAIConfig(aiConfig),
		corpuskit.WithProgressWriter(os.Stderr)), nil
}

func ingestCommand(c *cli.Context) error {
	desc, versionDir, err := newCorpus(c).Ingest()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Version: %s\n", desc.VersionID)
	fmt.Fprintf(os.Stderr, "Files: %d\n", desc.FileCount)
	fmt.Fprintf(os.Stderr, "Digest: %s\n", desc.CombinedDigest)
	fmt.Fprintf(os.Stderr, "Directory: %s\n", versionDir)
	return nil
}

func normalizeCommand(c *cli.Context) error {
	corpus := newCorpus(c)

	versionDir := c.String("version-dir")
	if versionDir == "" {
		latest, err := corpus.LatestVersionDir()
		if err != nil {
			return fmt.Errorf("no version to normalize into: %w", err)
		}
		versionDir = latest
	}

	stats, err := corpus.Normalize(c.String("source"), versionDir, c.Int("workers"))
	if err != nil {
		return fmt.Errorf("normalize failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Source: %s\n", stats.Source)
	fmt.Fprintf(os.Stderr, "Input files: %d\n", stats.InputFiles)
	fmt.Fprintf(os.Stderr, "Records out: %d\n", stats.RecordsOut)
	fmt.Fprintf(os.Stderr, "Skipped files: %d\n", stats.SkippedFiles)
	return nil
}

func searchCommand(c *cli.Context) error {
	match, err := search.ParseMatchMode(c.String("match"))
	if err != nil {
		return err
	}

	snippetChars := c.Int("snippet-chars")
	if c.Bool("no-snippet") {
		snippetChars = -1
	}

	hits, err := newCorpus(c).Search(c.String("query"), search.Params{
		InputPath:    c.String("in"),
		Sources:      c.StringSlice("source"),
		Limit:        c.Int("limit"),
		Match:        match,
		ScanChars:    c.Int("scan-chars"),
		SnippetChars: snippetChars,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printHits(hits, c.Bool("json"))
}

func indexCommand(c *cli.Context) error {
	corpus, err := newEmbeddingCorpus(c)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	desc, err := corpus.BuildIndex(context.Background(), vecindex.BuildParams{
		InputPath: c.String("in"),
		Sources:   c.StringSlice("source"),
		OutDir:    c.String("out"),
		BatchSize: c.Int("batch-size"),
		MaxChars:  c.Int("max-chars"),
		LogEvery:  c.Int("log-every"),
		Overwrite: c.Bool("overwrite"),
	})
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed records: %d\n", desc.TotalRecords)
	fmt.Fprintf(os.Stderr, "Vector dimension: %d\n", desc.VectorDim)
	return nil
}

func vsearchCommand(c *cli.Context) error {
	corpus, err := newEmbeddingCorpus(c)
	if err != nil {
		return err
	}

	hits, err := corpus.VectorSearch(context.Background(), c.String("query"), c.String("index"), vecindex.SearchParams{
		Limit:        c.Int("limit"),
		ChunkSize:    c.Int("chunk-size"),
		SnippetChars: c.Int("snippet-chars"),
		Sources:      c.StringSlice("source"),
		Oversample:   c.Int("oversample"),
	})
	if err != nil {
		return fmt.Errorf("vector search failed: %w", err)
	}

	return printHits(hits, c.Bool("json"))
}

func printHits(hits []core.ScoredHit, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, hit := range hits {
			if err := enc.Encode(hit); err != nil {
				return err
			}
		}
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No matching records.")
		return nil
	}

	rank := color.New(color.FgGreen, color.Bold).SprintFunc()
	label := color.New(color.FgCyan).SprintFunc()

	for i, hit := range hits {
		fmt.Printf("%s %s (score %.4f)\n", rank(fmt.Sprintf("%d.", i+1)), hit.Title, hit.Score)
		fmt.Printf("   %s %s  %s %s\n", label("source:"), hit.Source, label("record:"), hit.RecordID)
		if hit.Date != "" {
			fmt.Printf("   %s %s\n", label("date:"), hit.Date)
		}
		if hit.URL != "" {
			fmt.Printf("   %s %s\n", label("url:"), hit.URL)
		}
		fmt.Printf("   %s %s (record %d)\n", label("file:"), hit.SourceFile, hit.RawIndex)
		if hit.Snippet != "" {
			fmt.Printf("   %s\n", hit.Snippet)
		}
		fmt.Println()
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}
