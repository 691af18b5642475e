package usecase

import (
	"context"

	"github.com/basediff/basediff/internal/domain"
)

// CommitRepository defines storage operations for commit records.
type CommitRepository interface {
	// BulkInsert writes records with first-write-wins dedup on hash and
	// returns the number of rows actually inserted.
	BulkInsert(ctx context.Context, commits []domain.Commit) (int64, error)
	// DistinctChangeIDs returns the sorted distinct non-empty change
	// identifiers among commits of the given projects.
	DistinctChangeIDs(ctx context.Context, projects []string) ([]string, error)
	// SetClassificationByChangeIDs labels all commits carrying any of the
	// given identifiers. All-or-nothing per call.
	SetClassificationByChangeIDs(ctx context.Context, changeIDs []string, label domain.Classification) (int64, error)
	// ProjectsWithoutChangeID lists projects having commits that lack a
	// change identifier.
	ProjectsWithoutChangeID(ctx context.Context) ([]string, error)
	// SetClassificationByProjectsWithoutChangeID labels identifier-less
	// commits of the given projects. All-or-nothing per call.
	SetClassificationByProjectsWithoutChangeID(ctx context.Context, projects []string, label domain.Classification) (int64, error)
	// Query returns one page plus the total match count ignoring paging.
	Query(ctx context.Context, filter domain.CommitFilter, limit, offset int) ([]domain.CommitWithRemote, int64, error)
	// ByChangeIDs returns all commits carrying any of the identifiers,
	// ordered by hash within an identifier.
	ByChangeIDs(ctx context.Context, changeIDs []string) ([]domain.CommitWithRemote, error)
	DistinctProjects(ctx context.Context) ([]string, error)
	DistinctAuthors(ctx context.Context) ([]string, error)
	CountByClassification(ctx context.Context) (map[string]int64, error)
	// Reset clears commits, projects, and label links. Destructive.
	Reset(ctx context.Context) error
}

// ProjectRepository persists manifest project entries.
type ProjectRepository interface {
	UpsertAll(ctx context.Context, projects []domain.Project) error
}

// LabelRepository persists labels and commit↔label links.
type LabelRepository interface {
	List(ctx context.Context) ([]domain.Label, error)
	Add(ctx context.Context, name string, isDefault bool) (int64, error)
	Remove(ctx context.Context, id int64) error
	SetForCommit(ctx context.Context, hash string, labelIDs []int64) error
	ForCommits(ctx context.Context, hashes []string) (map[string][]domain.Label, error)
}

// ManifestReader yields the project list of one tree.
type ManifestReader interface {
	Read(root string) ([]domain.Project, error)
}

// LogReader yields raw commit records for one project, newest first.
type LogReader interface {
	Scan(ctx context.Context, project domain.Project) ([]domain.Commit, error)
}

// ProgressReporter receives progress events from long-running
// operations. An explicit handle, not shared global state.
type ProgressReporter interface {
	Publish(ctx context.Context, p domain.Progress)
}

// NopProgress discards progress events.
type NopProgress struct{}

func (NopProgress) Publish(ctx context.Context, p domain.Progress) {}
