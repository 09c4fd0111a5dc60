package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wikiforge/wikiforge/pkg/chunking"
	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/repo"
)

// indexCmd dry-runs chunking and embedding against a repo without creating a
// job or touching the store, for inspecting what a real run would chunk and
// how many tokens it would spend before committing to it.
func indexCmd() *cobra.Command {
	var (
		owner        string
		repoName     string
		ref          string
		accessToken  string
		excludeDirs  []string
		excludeFiles []string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Dry-run chunking and embedding against a repo",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

			fetcher := repo.NewGitHubFetcher(logger)
			dir, cleanup, err := fetcher.Fetch(ctx, repo.Request{
				Owner:       owner,
				Repo:        repoName,
				Ref:         ref,
				AccessToken: accessToken,
			})
			if err != nil {
				return fmt.Errorf("fetch repo: %w", err)
			}
			defer cleanup()

			chunkCfg := config.DefaultChunkingConfig()
			chunkCfg.ExcludedDirs = append(chunkCfg.ExcludedDirs, excludeDirs...)

			filters := chunking.Filters{ExcludedDirs: excludeDirs, ExcludedFiles: excludeFiles}

			chunks, stats, err := chunking.ChunkRepo(ctx, logger, dir, chunkCfg, filters)
			if err != nil {
				return fmt.Errorf("chunk repo: %w", err)
			}
			color.Cyan("chunked %d files into %d chunks (%d tokens)", countFiles(chunks), stats.TotalChunks, stats.TotalTokens)

			chain := chunking.NewChain(logger, chunkCfg.EmbedderChain, nil)

			bar := progressbar.NewOptions(len(chunks),
				progressbar.OptionSetDescription("embedding"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(false),
			)

			var embedded, dropped int
			batchSize := chunkCfg.BatchSize
			if batchSize <= 0 {
				batchSize = 32
			}
			for start := 0; start < len(chunks); start += batchSize {
				end := start + batchSize
				if end > len(chunks) {
					end = len(chunks)
				}
				batch := chunks[start:end]

				out, err := chunking.EmbedBatch(ctx, chain, batch, len(batch))
				if err != nil {
					return fmt.Errorf("embed batch: %w", err)
				}
				embedded += len(out)
				dropped += len(batch) - len(out)
				bar.Add(len(batch))
			}
			fmt.Println()

			if dropped > 0 {
				color.Yellow("%d chunks produced empty embeddings and were dropped", dropped)
			}
			color.Green("embedded %d/%d chunks", embedded, len(chunks))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&repoName, "repo", "", "Repository name")
	cmd.Flags().StringVar(&ref, "ref", "", "Branch, tag, or commit SHA (default branch if empty)")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "Access token for private repositories")
	cmd.Flags().StringSliceVar(&excludeDirs, "exclude-dir", nil, "Directory glob to exclude (repeatable)")
	cmd.Flags().StringSliceVar(&excludeFiles, "exclude-file", nil, "File glob to exclude (repeatable)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")

	return cmd
}

func countFiles(chunks []chunking.Chunk) int {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.FilePath] = struct{}{}
	}
	return len(seen)
}
