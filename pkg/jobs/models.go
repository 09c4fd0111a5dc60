// Package jobs implements the durable job engine: the persistent job/page
// state machine, per-page checkpointing, and the pause/resume/cancel/retry
// operations the dispatcher and the REST exit points drive it through.
package jobs

import "time"

// Status is a Job's lattice position.
type Status string

const (
	StatusPending             Status = "pending"
	StatusPreparingEmbeddings Status = "preparing_embeddings"
	StatusGeneratingStructure Status = "generating_structure"
	StatusGeneratingPages     Status = "generating_pages"
	StatusCompleted           Status = "completed"
	StatusPartiallyCompleted  Status = "partially_completed"
	StatusPaused              Status = "paused"
	StatusCancelled           Status = "cancelled"
	StatusFailed              Status = "failed"
)

// IsTerminal reports whether no further dispatcher action is expected
// without an explicit retry/resume call.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusPartiallyCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// PageImportance ranks a page's priority for ordering within a wiki.
type PageImportance string

const (
	ImportanceHigh   PageImportance = "high"
	ImportanceMedium PageImportance = "medium"
	ImportanceLow    PageImportance = "low"
)

// PageStatus is a Page's lattice position.
type PageStatus string

const (
	PageStatusPending         PageStatus = "pending"
	PageStatusInProgress      PageStatus = "in_progress"
	PageStatusCompleted       PageStatus = "completed"
	PageStatusFailed          PageStatus = "failed"
	PageStatusPermanentFailed PageStatus = "permanent_failed"
)

// MaxPageRetries is the retry ceiling past which a failed page is marked
// permanent_failed instead of being retried by the dispatcher.
const MaxPageRetries = 3

// RepoType enumerates the supported source-control hosts.
type RepoType string

const (
	RepoTypeGitHub        RepoType = "github"
	RepoTypeGitLab        RepoType = "gitlab"
	RepoTypeBitbucket     RepoType = "bitbucket"
	RepoTypeAzureDevOps   RepoType = "azuredevops"
)

// CreateRequest is the input to CreateJob.
type CreateRequest struct {
	RepoURL         string
	RepoType        RepoType
	Owner           string
	Repo            string
	AccessToken     string
	ExcludedDirs    []string
	ExcludedFiles   []string
	IncludedDirs    []string
	IncludedFiles   []string
	Provider        string
	Model           string
	Language        string
	IsComprehensive bool
	ClientID        string
}

// Job is a unit of work for a single (repo, model, language) triple.
type Job struct {
	ID       string
	RepoURL  string
	RepoType RepoType
	Owner    string
	Repo     string

	AccessToken   string
	ExcludedDirs  []string
	ExcludedFiles []string
	IncludedDirs  []string
	IncludedFiles []string

	Provider        string
	Model           string
	Language        string
	IsComprehensive bool
	ClientID        string

	Status          Status
	CurrentPhase    int
	ProgressPercent int
	ErrorMessage    string

	TotalPages      int
	CompletedPages  int
	FailedPages     int
	TotalTokensUsed int64

	WikiStructure string

	CreatedAt time.Time
	StartedAt *time.Time

	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Page is one wiki page within a Job.
type Page struct {
	ID            string
	JobID         string
	PageID        string
	Title         string
	Description   string
	Importance    PageImportance
	FilePaths     []string
	RelatedPages  []string
	ParentSection string

	Status            PageStatus
	Content           string
	RetryCount        int
	LastError         string
	TokensUsed        int64
	GenerationTimeMs  int64

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// PageSpec is the input to SetWikiStructure for a single page row.
type PageSpec struct {
	PageID        string
	Title         string
	Description   string
	Importance    PageImportance
	FilePaths     []string
	RelatedPages  []string
	ParentSection string
}

// TokenStats is the per-job token accounting row.
type TokenStats struct {
	JobID                     string
	ChunkingTotalTokens       int64
	ChunkingTotalChunks       int64
	ProviderPromptTokens      int64
	ProviderCompletionTokens  int64
	ProviderTotalTokens       int64
}

// JobDetail joins a Job with its pages and token summary.
type JobDetail struct {
	Job        Job
	Pages      []Page
	TokenStats *TokenStats
}

// ListFilters narrows ListJobs/CountJobs.
type ListFilters struct {
	Status   Status
	Provider string
	ClientID string
	Owner    string
	Repo     string
}

// ListResult is a page of jobs plus the total matching count.
type ListResult struct {
	Jobs       []Job
	TotalCount int
	Limit      int
	Offset     int
}
