package api

import "github.com/wikiforge/wikiforge/pkg/jobs"

// createJobRequest is the body of POST /jobs.
type createJobRequest struct {
	RepoURL         string   `json:"repo_url" binding:"required"`
	RepoType        string   `json:"repo_type" binding:"required"`
	Owner           string   `json:"owner" binding:"required"`
	Repo            string   `json:"repo" binding:"required"`
	AccessToken     string   `json:"access_token"`
	ExcludedDirs    []string `json:"excluded_dirs"`
	ExcludedFiles   []string `json:"excluded_files"`
	IncludedDirs    []string `json:"included_dirs"`
	IncludedFiles   []string `json:"included_files"`
	Provider        string   `json:"provider" binding:"required"`
	Model           string   `json:"model"`
	Language        string   `json:"language"`
	IsComprehensive bool     `json:"is_comprehensive"`
	ClientID        string   `json:"client_id"`
}

func (r createJobRequest) toCreateRequest() jobs.CreateRequest {
	return jobs.CreateRequest{
		RepoURL:         r.RepoURL,
		RepoType:        jobs.RepoType(r.RepoType),
		Owner:           r.Owner,
		Repo:            r.Repo,
		AccessToken:     r.AccessToken,
		ExcludedDirs:    r.ExcludedDirs,
		ExcludedFiles:   r.ExcludedFiles,
		IncludedDirs:    r.IncludedDirs,
		IncludedFiles:   r.IncludedFiles,
		Provider:        r.Provider,
		Model:           r.Model,
		Language:        r.Language,
		IsComprehensive: r.IsComprehensive,
		ClientID:        r.ClientID,
	}
}

// createJobResponse is the body of a successful POST /jobs.
type createJobResponse struct {
	JobID string `json:"job_id"`
}

// pageResponse mirrors one job_pages row for JSON consumers.
type pageResponse struct {
	ID               string   `json:"id"`
	PageID           string   `json:"page_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Importance       string   `json:"importance"`
	FilePaths        []string `json:"file_paths"`
	RelatedPages     []string `json:"related_pages"`
	ParentSection    string   `json:"parent_section,omitempty"`
	Status           string   `json:"status"`
	Content          string   `json:"content,omitempty"`
	RetryCount       int      `json:"retry_count"`
	LastError        string   `json:"last_error,omitempty"`
	TokensUsed       int64    `json:"tokens_used"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
}

func newPageResponse(p jobs.Page) pageResponse {
	return pageResponse{
		ID:               p.ID,
		PageID:           p.PageID,
		Title:            p.Title,
		Description:      p.Description,
		Importance:       string(p.Importance),
		FilePaths:        p.FilePaths,
		RelatedPages:     p.RelatedPages,
		ParentSection:    p.ParentSection,
		Status:           string(p.Status),
		Content:          p.Content,
		RetryCount:       p.RetryCount,
		LastError:        p.LastError,
		TokensUsed:       p.TokensUsed,
		GenerationTimeMs: p.GenerationTimeMs,
	}
}

// tokenStatsResponse mirrors the job_token_stats row.
type tokenStatsResponse struct {
	ChunkingTotalTokens      int64 `json:"chunking_total_tokens"`
	ChunkingTotalChunks      int64 `json:"chunking_total_chunks"`
	ProviderPromptTokens     int64 `json:"provider_prompt_tokens"`
	ProviderCompletionTokens int64 `json:"provider_completion_tokens"`
	ProviderTotalTokens      int64 `json:"provider_total_tokens"`
}

func newTokenStatsResponse(s *jobs.TokenStats) *tokenStatsResponse {
	if s == nil {
		return nil
	}
	return &tokenStatsResponse{
		ChunkingTotalTokens:      s.ChunkingTotalTokens,
		ChunkingTotalChunks:      s.ChunkingTotalChunks,
		ProviderPromptTokens:     s.ProviderPromptTokens,
		ProviderCompletionTokens: s.ProviderCompletionTokens,
		ProviderTotalTokens:      s.ProviderTotalTokens,
	}
}

// jobResponse mirrors a jobs row for JSON consumers, without the pages or
// token summary (used in list responses).
type jobResponse struct {
	ID              string `json:"id"`
	RepoURL         string `json:"repo_url"`
	RepoType        string `json:"repo_type"`
	Owner           string `json:"owner"`
	Repo            string `json:"repo"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	Language        string `json:"language"`
	IsComprehensive bool   `json:"is_comprehensive"`
	ClientID        string `json:"client_id,omitempty"`
	Status          string `json:"status"`
	CurrentPhase    int    `json:"current_phase"`
	ProgressPercent int    `json:"progress_percent"`
	ErrorMessage    string `json:"error_message,omitempty"`
	TotalPages      int    `json:"total_pages"`
	CompletedPages  int    `json:"completed_pages"`
	FailedPages     int    `json:"failed_pages"`
	TotalTokensUsed int64  `json:"total_tokens_used"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func newJobResponse(j jobs.Job) jobResponse {
	return jobResponse{
		ID:              j.ID,
		RepoURL:         j.RepoURL,
		RepoType:        string(j.RepoType),
		Owner:           j.Owner,
		Repo:            j.Repo,
		Provider:        j.Provider,
		Model:           j.Model,
		Language:        j.Language,
		IsComprehensive: j.IsComprehensive,
		ClientID:        j.ClientID,
		Status:          string(j.Status),
		CurrentPhase:    j.CurrentPhase,
		ProgressPercent: j.ProgressPercent,
		ErrorMessage:    j.ErrorMessage,
		TotalPages:      j.TotalPages,
		CompletedPages:  j.CompletedPages,
		FailedPages:     j.FailedPages,
		TotalTokensUsed: j.TotalTokensUsed,
		CreatedAt:       j.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       j.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// jobDetailResponse is the body of GET /jobs/{id}: the job plus its pages
// and token summary (spec §6).
type jobDetailResponse struct {
	jobResponse
	Pages      []pageResponse      `json:"pages"`
	TokenStats *tokenStatsResponse `json:"token_stats,omitempty"`
}

func newJobDetailResponse(d *jobs.JobDetail) jobDetailResponse {
	pages := make([]pageResponse, 0, len(d.Pages))
	for _, p := range d.Pages {
		pages = append(pages, newPageResponse(p))
	}
	return jobDetailResponse{
		jobResponse: newJobResponse(d.Job),
		Pages:       pages,
		TokenStats:  newTokenStatsResponse(d.TokenStats),
	}
}

// listJobsResponse is the body of GET /jobs.
type listJobsResponse struct {
	Jobs       []jobResponse `json:"jobs"`
	TotalCount int           `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

func newListJobsResponse(r *jobs.ListResult) listJobsResponse {
	out := listJobsResponse{TotalCount: r.TotalCount, Limit: r.Limit, Offset: r.Offset}
	out.Jobs = make([]jobResponse, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		out.Jobs = append(out.Jobs, newJobResponse(j))
	}
	return out
}
