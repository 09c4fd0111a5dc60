package jobs

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wikiforge/wikiforge/pkg/store"
)

const timeLayout = "2006-01-02T15:04:05Z"

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// Manager owns all reads and writes to the jobs and job_pages tables. It is
// the only component permitted to mutate Job and Page rows.
type Manager struct {
	db *store.Client
}

// NewManager constructs a Manager over an already-migrated store.Client.
func NewManager(db *store.Client) *Manager {
	return &Manager{db: db}
}

func marshalList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

// activeStatuses are the non-terminal statuses considered when enforcing the
// idempotent-creation invariant.
var activeStatuses = []Status{
	StatusPending, StatusPreparingEmbeddings, StatusGeneratingStructure,
	StatusGeneratingPages, StatusPaused,
}

func (m *Manager) validateCreateRequest(req CreateRequest) error {
	if req.RepoURL == "" {
		return newValidationError("repo_url", "required")
	}
	if req.Owner == "" {
		return newValidationError("owner", "required")
	}
	if req.Repo == "" {
		return newValidationError("repo", "required")
	}
	if req.Provider == "" {
		return newValidationError("provider", "required")
	}
	switch req.RepoType {
	case RepoTypeGitHub, RepoTypeGitLab, RepoTypeBitbucket, RepoTypeAzureDevOps:
	default:
		return newValidationError("repo_type", "must be one of github, gitlab, bitbucket, azuredevops")
	}
	return nil
}

// CreateJob performs the duplicate-active-job check and either returns the
// existing job's id or inserts a new pending job. The second return value
// reports whether a new row was inserted.
func (m *Manager) CreateJob(ctx context.Context, req CreateRequest) (string, bool, error) {
	if err := m.validateCreateRequest(req); err != nil {
		return "", false, err
	}
	if req.Language == "" {
		req.Language = "en"
	}

	placeholders := make([]string, len(activeStatuses))
	for i := range activeStatuses {
		placeholders[i] = "?"
	}

	query := fmt.Sprintf(`SELECT id FROM jobs WHERE owner = ? AND repo = ? AND language = ? AND provider = ?
		AND ((model IS NULL AND ? IS NULL) OR model = ?) AND status IN (%s)`, strings.Join(placeholders, ","))
	args := []interface{}{req.Owner, req.Repo, req.Language, req.Provider, nullableString(req.Model), nullableString(req.Model)}
	for _, s := range activeStatuses {
		args = append(args, string(s))
	}

	var existingID string
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&existingID)
	}, query, args...)
	if err == nil {
		return existingID, false, nil
	}
	if !errors.Is(err, stdsql.ErrNoRows) {
		return "", false, fmt.Errorf("check existing job: %w", err)
	}

	id := uuid.NewString()
	now := formatTime(nowUTC())
	_, err = m.db.Execute(ctx, `INSERT INTO jobs
		(id, repo_url, repo_type, owner, repo, access_token, excluded_dirs, excluded_files, included_dirs, included_files,
		 provider, model, language, is_comprehensive, client_id, status, current_phase, progress_percent,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		id, req.RepoURL, string(req.RepoType), req.Owner, req.Repo, req.AccessToken,
		marshalList(req.ExcludedDirs), marshalList(req.ExcludedFiles), marshalList(req.IncludedDirs), marshalList(req.IncludedFiles),
		req.Provider, nullableString(req.Model), req.Language, boolToInt(req.IsComprehensive), nullableString(req.ClientID),
		string(StatusPending), now, now)
	if err != nil {
		return "", false, fmt.Errorf("insert job: %w", err)
	}

	if _, err := m.db.Execute(ctx, `INSERT INTO job_token_stats (job_id, updated_at) VALUES (?, ?)`, id, now); err != nil {
		return "", false, fmt.Errorf("initialize token stats: %w", err)
	}

	return id, true, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const jobColumns = `id, repo_url, repo_type, owner, repo, access_token, excluded_dirs, excluded_files, included_dirs, included_files,
	provider, model, language, is_comprehensive, client_id, status, current_phase, progress_percent, error_message,
	total_pages, completed_pages, failed_pages, total_tokens_used, wiki_structure, created_at, started_at, completed_at, updated_at`

func scanJob(scan func(...interface{}) error) (Job, error) {
	var j Job
	var repoType, status, excludedDirs, excludedFiles, includedDirs, includedFiles string
	var model, clientID, errorMessage, wikiStructure, accessToken stdsql.NullString
	var createdAt, updatedAt string
	var startedAt, completedAt stdsql.NullString
	var isComprehensive int

	err := scan(&j.ID, &j.RepoURL, &repoType, &j.Owner, &j.Repo, &accessToken,
		&excludedDirs, &excludedFiles, &includedDirs, &includedFiles,
		&j.Provider, &model, &j.Language, &isComprehensive, &clientID, &status, &j.CurrentPhase, &j.ProgressPercent, &errorMessage,
		&j.TotalPages, &j.CompletedPages, &j.FailedPages, &j.TotalTokensUsed, &wikiStructure, &createdAt, &startedAt, &completedAt, &updatedAt)
	if err != nil {
		return Job{}, err
	}

	j.RepoType = RepoType(repoType)
	j.Status = Status(status)
	j.AccessToken = accessToken.String
	j.ExcludedDirs = unmarshalList(excludedDirs)
	j.ExcludedFiles = unmarshalList(excludedFiles)
	j.IncludedDirs = unmarshalList(includedDirs)
	j.IncludedFiles = unmarshalList(includedFiles)
	j.Model = model.String
	j.ClientID = clientID.String
	j.IsComprehensive = isComprehensive != 0
	j.ErrorMessage = errorMessage.String
	j.WikiStructure = wikiStructure.String
	j.CreatedAt = *parseTime(createdAt)
	j.StartedAt = parseTime(startedAt.String)
	j.CompletedAt = parseTime(completedAt.String)
	j.UpdatedAt = *parseTime(updatedAt)
	return j, nil
}

// GetJob fetches a single job by id.
func (m *Manager) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		j, err := scanJob(scan)
		job = j
		return err
	}, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// GetJobDetail joins the job with its pages and token summary.
func (m *Manager) GetJobDetail(ctx context.Context, id string) (*JobDetail, error) {
	job, err := m.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	pages, err := m.listPages(ctx, id, "")
	if err != nil {
		return nil, fmt.Errorf("list pages for job %s: %w", id, err)
	}

	stats, err := m.getTokenStats(ctx, id)
	if err != nil && !errors.Is(err, stdsql.ErrNoRows) {
		return nil, fmt.Errorf("get token stats for job %s: %w", id, err)
	}

	return &JobDetail{Job: *job, Pages: pages, TokenStats: stats}, nil
}

func (m *Manager) getTokenStats(ctx context.Context, jobID string) (*TokenStats, error) {
	var stats TokenStats
	stats.JobID = jobID
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&stats.ChunkingTotalTokens, &stats.ChunkingTotalChunks,
			&stats.ProviderPromptTokens, &stats.ProviderCompletionTokens, &stats.ProviderTotalTokens)
	}, `SELECT chunking_total_tokens, chunking_total_chunks, provider_prompt_tokens, provider_completion_tokens, provider_total_tokens
		FROM job_token_stats WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListJobs returns a filtered, paginated slice of jobs plus the total count.
func (m *Manager) ListJobs(ctx context.Context, filters ListFilters, limit, offset int) (*ListResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where, args := buildListWhere(filters)

	total, err := m.CountJobs(ctx, filters)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + jobColumns + " FROM jobs" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var out []Job
	err = m.db.FetchAll(ctx, query, func(rows *stdsql.Rows) error {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return err
		}
		out = append(out, j)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return &ListResult{Jobs: out, TotalCount: total, Limit: limit, Offset: offset}, nil
}

// CountJobs counts jobs matching filters.
func (m *Manager) CountJobs(ctx context.Context, filters ListFilters) (int, error) {
	where, args := buildListWhere(filters)
	var count int
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&count)
	}, "SELECT COUNT(*) FROM jobs"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

func buildListWhere(filters ListFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filters.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filters.Status))
	}
	if filters.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, filters.Provider)
	}
	if filters.ClientID != "" {
		clauses = append(clauses, "client_id = ?")
		args = append(args, filters.ClientID)
	}
	if filters.Owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, filters.Owner)
	}
	if filters.Repo != "" {
		clauses = append(clauses, "repo = ?")
		args = append(args, filters.Repo)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// dispatcherEligibleStatuses are the statuses GetPendingJobs polls: every
// status a job can sit in while the dispatcher still owns it (spec §4.I
// step 1).
var dispatcherEligibleStatuses = []Status{
	StatusPending, StatusPreparingEmbeddings, StatusGeneratingStructure, StatusGeneratingPages,
}

// GetPendingJobs returns every job the dispatcher should consider, oldest
// first (§4.I step 1). The dispatcher still re-reads each job's status
// before acting on it (step 4), since this snapshot can be stale by the
// time a given job is reached.
func (m *Manager) GetPendingJobs(ctx context.Context) ([]Job, error) {
	placeholders := make([]string, len(dispatcherEligibleStatuses))
	args := make([]interface{}, len(dispatcherEligibleStatuses))
	for i, s := range dispatcherEligibleStatuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	query := "SELECT " + jobColumns + " FROM jobs WHERE status IN (" +
		strings.Join(placeholders, ", ") + ") ORDER BY created_at ASC"

	var out []Job
	err := m.db.FetchAll(ctx, query, func(rows *stdsql.Rows) error {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return err
		}
		out = append(out, j)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("get pending jobs: %w", err)
	}
	return out, nil
}

// UpdateJobStatus updates status and optionally phase/progress/error. It
// stamps started_at when transitioning to preparing_embeddings and
// completed_at on any terminal transition.
func (m *Manager) UpdateJobStatus(ctx context.Context, id string, status Status, phase, progress *int, errMsg *string) error {
	now := formatTime(nowUTC())

	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(status), now}

	if phase != nil {
		sets = append(sets, "current_phase = ?")
		args = append(args, *phase)
	}
	if progress != nil {
		sets = append(sets, "progress_percent = ?")
		args = append(args, *progress)
	}
	if errMsg != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *errMsg)
	}
	if status == StatusPreparingEmbeddings {
		sets = append(sets, "started_at = COALESCE(started_at, ?)")
		args = append(args, now)
	}
	if status.IsTerminal() {
		sets = append(sets, "completed_at = ?")
		args = append(args, now)
	}

	args = append(args, id)
	affected, err := m.db.Execute(ctx, "UPDATE jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWikiStructure writes the structure blob, total page count, and inserts
// pending Page rows, all inside one transaction.
func (m *Manager) SetWikiStructure(ctx context.Context, jobID string, structure string, pages []PageSpec) error {
	tx, err := m.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(nowUTC())

	res, err := tx.ExecContext(ctx, `UPDATE jobs SET wiki_structure = ?, total_pages = ?, updated_at = ? WHERE id = ?`,
		structure, len(pages), now, jobID)
	if err != nil {
		return fmt.Errorf("update wiki structure: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	for _, p := range pages {
		_, err := tx.ExecContext(ctx, `INSERT INTO job_pages
			(id, job_id, page_id, title, description, importance, file_paths, related_pages, parent_section, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), jobID, p.PageID, p.Title, nullableString(p.Description), string(orDefaultImportance(p.Importance)),
			marshalList(p.FilePaths), marshalList(p.RelatedPages), nullableString(p.ParentSection), string(PageStatusPending), now, now)
		if err != nil {
			return fmt.Errorf("insert page %s: %w", p.PageID, err)
		}
	}

	return tx.Commit()
}

func orDefaultImportance(i PageImportance) PageImportance {
	if i == "" {
		return ImportanceMedium
	}
	return i
}

const pageColumns = `id, job_id, page_id, title, description, importance, file_paths, related_pages, parent_section,
	status, content, retry_count, last_error, tokens_used, generation_time_ms, created_at, started_at, completed_at, updated_at`

func scanPage(scan func(...interface{}) error) (Page, error) {
	var p Page
	var importance, status string
	var description, parentSection, content, lastError stdsql.NullString
	var createdAt, updatedAt string
	var startedAt, completedAt stdsql.NullString
	var filePaths, relatedPages string

	err := scan(&p.ID, &p.JobID, &p.PageID, &p.Title, &description, &importance, &filePaths, &relatedPages, &parentSection,
		&status, &content, &p.RetryCount, &lastError, &p.TokensUsed, &p.GenerationTimeMs, &createdAt, &startedAt, &completedAt, &updatedAt)
	if err != nil {
		return Page{}, err
	}

	p.Description = description.String
	p.Importance = PageImportance(importance)
	p.FilePaths = unmarshalList(filePaths)
	p.RelatedPages = unmarshalList(relatedPages)
	p.ParentSection = parentSection.String
	p.Status = PageStatus(status)
	p.Content = content.String
	p.LastError = lastError.String
	p.CreatedAt = *parseTime(createdAt)
	p.StartedAt = parseTime(startedAt.String)
	p.CompletedAt = parseTime(completedAt.String)
	p.UpdatedAt = *parseTime(updatedAt)
	return p, nil
}

func (m *Manager) listPages(ctx context.Context, jobID string, statusFilter PageStatus) ([]Page, error) {
	query := "SELECT " + pageColumns + " FROM job_pages WHERE job_id = ?"
	args := []interface{}{jobID}
	if statusFilter != "" {
		query += " AND status = ?"
		args = append(args, string(statusFilter))
	}
	query += " ORDER BY created_at ASC"

	var out []Page
	err := m.db.FetchAll(ctx, query, func(rows *stdsql.Rows) error {
		p, err := scanPage(rows.Scan)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}, args...)
	return out, err
}

// GetNextPendingPage returns the oldest pending page for a job, or
// ErrPageNotFound if none remain.
func (m *Manager) GetNextPendingPage(ctx context.Context, jobID string) (*Page, error) {
	var page Page
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		p, err := scanPage(scan)
		page = p
		return err
	}, "SELECT "+pageColumns+" FROM job_pages WHERE job_id = ? AND status = ? ORDER BY created_at ASC LIMIT 1",
		jobID, string(PageStatusPending))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get next pending page: %w", err)
	}
	return &page, nil
}

// GetFailedPages returns all pages currently in the failed state for a job
// (candidates for a retry pass; permanent_failed pages are excluded).
func (m *Manager) GetFailedPages(ctx context.Context, jobID string) ([]Page, error) {
	return m.listPages(ctx, jobID, PageStatusFailed)
}

// UpdatePageStatus transitions a page, stamping timestamps appropriately and
// incrementing retry_count when an error is supplied.
func (m *Manager) UpdatePageStatus(ctx context.Context, pageID string, status PageStatus, content *string, tokens *int64, timeMs *int64, errMsg *string) error {
	now := formatTime(nowUTC())

	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(status), now}

	if content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *content)
	}
	if tokens != nil {
		sets = append(sets, "tokens_used = ?")
		args = append(args, *tokens)
	}
	if timeMs != nil {
		sets = append(sets, "generation_time_ms = ?")
		args = append(args, *timeMs)
	}
	if errMsg != nil {
		sets = append(sets, "last_error = ?", "retry_count = retry_count + 1")
		args = append(args, *errMsg)
	}
	if status == PageStatusInProgress {
		sets = append(sets, "started_at = COALESCE(started_at, ?)")
		args = append(args, now)
	}
	if status == PageStatusCompleted || status == PageStatusFailed || status == PageStatusPermanentFailed {
		sets = append(sets, "completed_at = ?")
		args = append(args, now)
	}

	args = append(args, pageID)
	affected, err := m.db.Execute(ctx, "UPDATE job_pages SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update page status: %w", err)
	}
	if affected == 0 {
		return ErrPageNotFound
	}
	return nil
}

// IncrementJobPageCount applies atomic deltas to completed/failed page
// counters and total token usage in a single UPDATE.
func (m *Manager) IncrementJobPageCount(ctx context.Context, jobID string, completedDelta, failedDelta int, tokensDelta int64) error {
	affected, err := m.db.Execute(ctx, `UPDATE jobs SET
		completed_pages = completed_pages + ?,
		failed_pages = failed_pages + ?,
		total_tokens_used = total_tokens_used + ?,
		updated_at = ?
		WHERE id = ?`, completedDelta, failedDelta, tokensDelta, formatTime(nowUTC()), jobID)
	if err != nil {
		return fmt.Errorf("increment job page count: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// conditionalTransition runs a conditional UPDATE and returns true iff
// exactly one row matched the precondition, giving test-and-set semantics.
func (m *Manager) conditionalTransition(ctx context.Context, query string, args ...interface{}) (bool, error) {
	affected, err := m.db.Execute(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// PauseJob moves a non-terminal, non-paused job to paused, from any of the
// three active phases.
func (m *Manager) PauseJob(ctx context.Context, id string) (bool, error) {
	return m.conditionalTransition(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?, ?, ?)`,
		string(StatusPaused), formatTime(nowUTC()), id,
		string(StatusPending), string(StatusPreparingEmbeddings), string(StatusGeneratingStructure), string(StatusGeneratingPages))
}

// ResumeJob moves a paused job back to the phase it was paused in, read off
// its stored current_phase (0 = preparing_embeddings, 1 = generating_structure,
// 2 = generating_pages) rather than always restarting at generating_pages —
// a job paused during phase 0 or 1 has no wiki structure yet, and resuming it
// straight into generating_pages would let the dispatcher terminalize an
// empty wiki.
func (m *Manager) ResumeJob(ctx context.Context, id string) (bool, error) {
	return m.conditionalTransition(ctx,
		`UPDATE jobs SET status = CASE current_phase
			WHEN 0 THEN ?
			WHEN 1 THEN ?
			ELSE ?
		END, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusPreparingEmbeddings), string(StatusGeneratingStructure), string(StatusGeneratingPages),
		formatTime(nowUTC()), id, string(StatusPaused))
}

// CancelJob moves any non-terminal job to cancelled.
func (m *Manager) CancelJob(ctx context.Context, id string) (bool, error) {
	return m.conditionalTransition(ctx,
		`UPDATE jobs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?, ?, ?)`,
		string(StatusCancelled), formatTime(nowUTC()), formatTime(nowUTC()), id,
		string(StatusCompleted), string(StatusPartiallyCompleted), string(StatusCancelled), string(StatusFailed))
}

// RetryJob moves a terminal failed/completed/partially_completed job back to
// generating_pages so the dispatcher resumes page work.
func (m *Manager) RetryJob(ctx context.Context, id string) (bool, error) {
	return m.conditionalTransition(ctx,
		`UPDATE jobs SET status = ?, error_message = NULL, updated_at = ? WHERE id = ? AND status IN (?, ?, ?)`,
		string(StatusGeneratingPages), formatTime(nowUTC()), id,
		string(StatusFailed), string(StatusCompleted), string(StatusPartiallyCompleted))
}

// RetryFailedPage resets a failed page to pending and, if the owning job was
// terminal, reopens it to generating_pages.
func (m *Manager) RetryFailedPage(ctx context.Context, pageID string) (bool, error) {
	var jobID string
	err := m.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&jobID)
	}, "SELECT job_id FROM job_pages WHERE id = ?", pageID)
	if errors.Is(err, stdsql.ErrNoRows) {
		return false, ErrPageNotFound
	}
	if err != nil {
		return false, fmt.Errorf("lookup page job: %w", err)
	}

	ok, err := m.conditionalTransition(ctx,
		`UPDATE job_pages SET status = ?, last_error = NULL, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(PageStatusPending), formatTime(nowUTC()), pageID, string(PageStatusFailed), string(PageStatusPermanentFailed))
	if err != nil || !ok {
		return ok, err
	}

	if _, err := m.conditionalTransition(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?, ?)`,
		string(StatusGeneratingPages), formatTime(nowUTC()), jobID,
		string(StatusFailed), string(StatusCompleted), string(StatusPartiallyCompleted)); err != nil {
		return false, fmt.Errorf("reopen job for page retry: %w", err)
	}

	return true, nil
}

// RequeueRetryablePages resets every failed page for a job back to pending,
// provided its retry_count hasn't yet reached MaxPageRetries (those pages
// were already promoted to permanent_failed by UpdatePageStatus via
// pagegen.NextStatus and are excluded). Used by the dispatcher's automatic
// retry pass in phase 2 (spec §4.H); RetryFailedPage is the separate,
// operator-driven single-page retry that also resets permanent_failed pages.
// Returns the number of pages requeued.
func (m *Manager) RequeueRetryablePages(ctx context.Context, jobID string) (int64, error) {
	affected, err := m.db.Execute(ctx,
		`UPDATE job_pages SET status = ?, updated_at = ? WHERE job_id = ? AND status = ? AND retry_count < ?`,
		string(PageStatusPending), formatTime(nowUTC()), jobID, string(PageStatusFailed), MaxPageRetries)
	if err != nil {
		return 0, fmt.Errorf("requeue retryable pages: %w", err)
	}
	return affected, nil
}

// ResetStuckPages resets any in_progress page for a job back to pending;
// used both for orphan recovery and as a pre-resume safety net. Returns the
// number of pages reset.
func (m *Manager) ResetStuckPages(ctx context.Context, jobID string) (int64, error) {
	affected, err := m.db.Execute(ctx,
		`UPDATE job_pages SET status = ?, updated_at = ? WHERE job_id = ? AND status = ?`,
		string(PageStatusPending), formatTime(nowUTC()), jobID, string(PageStatusInProgress))
	if err != nil {
		return 0, fmt.Errorf("reset stuck pages: %w", err)
	}
	return affected, nil
}

// DeleteJob permanently removes a job and its pages (cascades via FK).
func (m *Manager) DeleteJob(ctx context.Context, id string) (bool, error) {
	affected, err := m.db.Execute(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return affected == 1, nil
}

// DeleteTerminalJobsOlderThan removes every job in a terminal status whose
// completion (or, absent that, its last update) predates cutoff, along
// with its pages and token stats (cascades via FK). Used by the retention
// cleanup loop; never touches a non-terminal job regardless of age.
func (m *Manager) DeleteTerminalJobsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	affected, err := m.db.Execute(ctx, `
		DELETE FROM jobs
		WHERE status IN ('completed', 'partially_completed', 'cancelled', 'failed')
		  AND COALESCE(completed_at, updated_at) < ?`,
		formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete terminal jobs older than cutoff: %w", err)
	}
	return affected, nil
}
