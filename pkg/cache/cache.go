// Package cache writes the wiki-cache JSON artifact (spec §6): the
// terminal-success snapshot of a job's generated wiki, consumed by
// whatever serves completed wikis back out (out of core scope).
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wikiforge/wikiforge/pkg/jobs"
)

// StructurePage mirrors one page entry inside wiki_structure.pages.
type StructurePage struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Importance    string   `json:"importance,omitempty"`
	FilePaths     []string `json:"filePaths,omitempty"`
	RelatedPages  []string `json:"relatedPages,omitempty"`
	ParentSection string   `json:"parentSection,omitempty"`
}

// WikiStructure mirrors the wiki_structure object in the cache artifact.
type WikiStructure struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Pages       []StructurePage `json:"pages"`
}

// GeneratedPage mirrors one entry in generated_pages, keyed by page id.
type GeneratedPage struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	FilePaths    []string `json:"filePaths,omitempty"`
	Importance   string   `json:"importance,omitempty"`
	RelatedPages []string `json:"relatedPages,omitempty"`
}

// RepoInfo mirrors the repo object in the cache artifact.
type RepoInfo struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Type    string `json:"type"`
	RepoURL string `json:"repoUrl"`
}

// Artifact is the full JSON shape written under <data_root>/wikicache/.
type Artifact struct {
	WikiStructure  WikiStructure            `json:"wiki_structure"`
	GeneratedPages map[string]GeneratedPage `json:"generated_pages"`
	Repo           RepoInfo                 `json:"repo"`
	Provider       string                   `json:"provider"`
	Model          string                   `json:"model,omitempty"`
}

// Writer persists wiki-cache artifacts under a base directory.
type Writer struct {
	dir string
}

// NewWriter constructs a Writer rooted at dir (typically
// "<data_root>/wikicache").
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// FileName computes the artifact's file name for a job, per spec §6:
// deepwiki_cache_<repo_type>_<owner>_<repo>_<language>.json.
func FileName(repoType, owner, repoName, language string) string {
	return fmt.Sprintf("deepwiki_cache_%s_%s_%s_%s.json",
		sanitizeComponent(repoType), sanitizeComponent(owner), sanitizeComponent(repoName), sanitizeComponent(language))
}

func sanitizeComponent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, string(filepath.Separator), "_")
	s = strings.ReplaceAll(s, "/", "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// BuildArtifact assembles the cache Artifact from a completed job's detail.
func BuildArtifact(detail jobs.JobDetail) Artifact {
	job := detail.Job

	structure := parseStructure(job.WikiStructure)

	generated := make(map[string]GeneratedPage, len(detail.Pages))
	for _, p := range detail.Pages {
		if p.Status != jobs.PageStatusCompleted {
			continue
		}
		generated[p.PageID] = GeneratedPage{
			ID:           p.PageID,
			Title:        p.Title,
			Content:      p.Content,
			FilePaths:    p.FilePaths,
			Importance:   string(p.Importance),
			RelatedPages: p.RelatedPages,
		}
	}

	return Artifact{
		WikiStructure:  structure,
		GeneratedPages: generated,
		Repo: RepoInfo{
			Owner:   job.Owner,
			Repo:    job.Repo,
			Type:    string(job.RepoType),
			RepoURL: job.RepoURL,
		},
		Provider: job.Provider,
		Model:    job.Model,
	}
}

// parseStructure best-effort decodes the job's persisted wiki_structure
// JSON blob into the artifact's WikiStructure shape; an unparsable or
// empty blob yields a zero-value structure rather than failing the write.
func parseStructure(raw string) WikiStructure {
	if raw == "" {
		return WikiStructure{}
	}
	var s WikiStructure
	_ = json.Unmarshal([]byte(raw), &s)
	return s
}

// Write renders and persists the artifact for job, creating the cache
// directory if needed.
func (w *Writer) Write(detail jobs.JobDetail) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create wiki cache directory: %w", err)
	}

	artifact := BuildArtifact(detail)
	body, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal wiki cache artifact: %w", err)
	}

	job := detail.Job
	name := FileName(string(job.RepoType), job.Owner, job.Repo, job.Language)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write wiki cache artifact: %w", err)
	}
	return path, nil
}
