package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/store"
)

func openManager(ctx context.Context) (*store.Client, *jobs.Manager, error) {
	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := store.NewClient(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, jobs.NewManager(db), nil
}

func jobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage wiki-generation jobs",
	}
	cmd.AddCommand(jobCreateCmd(), jobListCmd(), jobGetCmd(),
		jobPauseCmd(), jobResumeCmd(), jobCancelCmd(), jobRetryCmd(), jobRetryPageCmd())
	return cmd
}

func jobCreateCmd() *cobra.Command {
	var req jobs.CreateRequest
	var repoType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wiki-generation job (idempotent: returns the existing active job if one matches)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.RepoType = jobs.RepoType(repoType)

			db, mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			id, created, err := mgr.CreateJob(cmd.Context(), req)
			if err != nil {
				return err
			}
			if created {
				color.Green("Created job %s", id)
			} else {
				color.Yellow("Job %s already active for this (owner, repo, language, provider, model)", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.RepoURL, "repo-url", "", "Repository URL")
	cmd.Flags().StringVar(&repoType, "repo-type", "github", "Repository host: github, gitlab, bitbucket, azuredevops")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&req.Repo, "repo", "", "Repository name")
	cmd.Flags().StringVar(&req.AccessToken, "access-token", "", "Access token for private repositories")
	cmd.Flags().StringVar(&req.Provider, "provider", "", "LLM provider name")
	cmd.Flags().StringVar(&req.Model, "model", "", "LLM model override")
	cmd.Flags().StringVar(&req.Language, "language", "en", "Wiki language")
	cmd.Flags().BoolVar(&req.IsComprehensive, "comprehensive", false, "Generate a comprehensive wiki structure")
	cmd.Flags().StringVar(&req.ClientID, "client-id", "", "Requesting client identifier, for rate/budget accounting")
	cmd.Flags().StringSliceVar(&req.ExcludedDirs, "exclude-dir", nil, "Directory glob to exclude (repeatable)")
	cmd.Flags().StringSliceVar(&req.ExcludedFiles, "exclude-file", nil, "File glob to exclude (repeatable)")
	cmd.Flags().StringSliceVar(&req.IncludedDirs, "include-dir", nil, "Directory glob to include (repeatable)")
	cmd.Flags().StringSliceVar(&req.IncludedFiles, "include-file", nil, "File glob to include (repeatable)")
	cmd.MarkFlagRequired("repo-url")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("provider")

	return cmd
}

func jobListCmd() *cobra.Command {
	var filters jobs.ListFilters
	var status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters.Status = jobs.Status(status)

			db, mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := mgr.ListJobs(cmd.Context(), filters, limit, offset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOWNER/REPO\tSTATUS\tPHASE\tPAGES\tPROVIDER")
			for _, j := range result.Jobs {
				fmt.Fprintf(w, "%s\t%s/%s\t%s\t%d\t%d/%d\t%s\n",
					j.ID, j.Owner, j.Repo, j.Status, j.CurrentPhase, j.CompletedPages, j.TotalPages, j.Provider)
			}
			w.Flush()
			fmt.Printf("%d of %d jobs (limit=%d offset=%d)\n", len(result.Jobs), result.TotalCount, result.Limit, result.Offset)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&filters.Provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&filters.ClientID, "client-id", "", "Filter by client id")
	cmd.Flags().StringVar(&filters.Owner, "owner", "", "Filter by owner")
	cmd.Flags().StringVar(&filters.Repo, "repo", "", "Filter by repo")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max rows to return (clamped to [1,100])")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")

	return cmd
}

func jobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show full job detail, including pages and token summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			detail, err := mgr.GetJobDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Job %s: %s/%s [%s]\n", detail.Job.ID, detail.Job.Owner, detail.Job.Repo, detail.Job.Status)
			fmt.Printf("  Phase %d, %d%% complete, %d/%d pages (%d failed)\n",
				detail.Job.CurrentPhase, detail.Job.ProgressPercent, detail.Job.CompletedPages, detail.Job.TotalPages, detail.Job.FailedPages)
			if detail.Job.ErrorMessage != "" {
				color.Red("  Error: %s", detail.Job.ErrorMessage)
			}
			if detail.TokenStats != nil {
				fmt.Printf("  Tokens: chunking=%d provider=%d (prompt=%d completion=%d)\n",
					detail.TokenStats.ChunkingTotalTokens, detail.TokenStats.ProviderTotalTokens,
					detail.TokenStats.ProviderPromptTokens, detail.TokenStats.ProviderCompletionTokens)
			}
			for _, p := range detail.Pages {
				fmt.Printf("  page %-20s %-18s %s\n", p.PageID, p.Status, p.Title)
			}
			return nil
		},
	}
}

func transitionCmd(use, short string, transition func(ctx context.Context, mgr *jobs.Manager, id string) (bool, error), verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ok, err := transition(cmd.Context(), mgr, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %s cannot be %s from its current state", args[0], verb)
			}
			color.Green("Job %s %s", args[0], verb)
			return nil
		},
	}
}

func jobPauseCmd() *cobra.Command {
	return transitionCmd("pause", "Pause a running job", func(ctx context.Context, mgr *jobs.Manager, id string) (bool, error) {
		return mgr.PauseJob(ctx, id)
	}, "paused")
}

func jobResumeCmd() *cobra.Command {
	return transitionCmd("resume", "Resume a paused job", func(ctx context.Context, mgr *jobs.Manager, id string) (bool, error) {
		return mgr.ResumeJob(ctx, id)
	}, "resumed")
}

func jobCancelCmd() *cobra.Command {
	return transitionCmd("cancel", "Cancel a job", func(ctx context.Context, mgr *jobs.Manager, id string) (bool, error) {
		return mgr.CancelJob(ctx, id)
	}, "cancelled")
}

func jobRetryCmd() *cobra.Command {
	return transitionCmd("retry", "Retry a failed or partially-completed job", func(ctx context.Context, mgr *jobs.Manager, id string) (bool, error) {
		return mgr.RetryJob(ctx, id)
	}, "retried")
}

func jobRetryPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry-page <page-id>",
		Short: "Reset a failed page back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, mgr, err := openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ok, err := mgr.RetryFailedPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("page %s cannot be retried from its current state", args[0])
			}
			color.Green("Page %s reset to pending", args[0])
			return nil
		},
	}
}
