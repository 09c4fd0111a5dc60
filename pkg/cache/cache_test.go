package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/jobs"
)

func TestFileName_MatchesSpecPattern(t *testing.T) {
	name := FileName("github", "Acme", "Widgets", "en")
	require.Equal(t, "deepwiki_cache_github_acme_widgets_en.json", name)
}

func TestBuildArtifact_IncludesOnlyCompletedPages(t *testing.T) {
	structureJSON, err := json.Marshal(WikiStructure{
		Title: "Demo Wiki",
		Pages: []StructurePage{{ID: "page-1", Title: "Intro"}},
	})
	require.NoError(t, err)

	detail := jobs.JobDetail{
		Job: jobs.Job{
			Owner: "acme", Repo: "widgets", RepoType: jobs.RepoTypeGitHub,
			RepoURL: "https://github.com/acme/widgets", Provider: "openai", Model: "gpt-4",
			WikiStructure: string(structureJSON),
		},
		Pages: []jobs.Page{
			{PageID: "page-1", Title: "Intro", Content: "hello", Status: jobs.PageStatusCompleted},
			{PageID: "page-2", Title: "Broken", Status: jobs.PageStatusPermanentFailed},
		},
	}

	artifact := BuildArtifact(detail)
	require.Equal(t, "Demo Wiki", artifact.WikiStructure.Title)
	require.Len(t, artifact.GeneratedPages, 1)
	require.Contains(t, artifact.GeneratedPages, "page-1")
	require.NotContains(t, artifact.GeneratedPages, "page-2")
	require.Equal(t, "openai", artifact.Provider)
	require.Equal(t, "gpt-4", artifact.Model)
}

func TestWriter_WritesFileToDisk(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "wikicache"))

	detail := jobs.JobDetail{
		Job: jobs.Job{Owner: "acme", Repo: "widgets", RepoType: jobs.RepoTypeGitHub, Language: "en", Provider: "openai"},
	}

	path, err := w.Write(detail)
	require.NoError(t, err)
	require.FileExists(t, path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var artifact Artifact
	require.NoError(t, json.Unmarshal(body, &artifact))
	require.Equal(t, "acme", artifact.Repo.Owner)
}
