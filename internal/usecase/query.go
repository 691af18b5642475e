package usecase

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/basediff/basediff/internal/domain"
)

// relatedCommitCap bounds how many cross-tree counterparts one shared
// commit exposes. When more exist, the lowest hashes win.
const relatedCommitCap = 5

// QueryOptions shape one page request. Limit zero means the configured
// default page size; requests above the maximum are rejected unless
// Unbounded is set, which caps the page at the maximum instead.
type QueryOptions struct {
	Filter    domain.CommitFilter
	Limit     int
	Offset    int
	Unbounded bool
}

// QueryResult is one page of classified commits plus the total match
// count ignoring paging.
type QueryResult struct {
	Total   int64           `json:"total"`
	Commits []domain.Commit `json:"commits"`
}

type QueryUsecase struct {
	commits     CommitRepository
	labels      LabelRepository
	defaultPage int
	maxPage     int

	// Distinct project/author lists change only on a rescan; a short
	// TTL keeps the dropdowns cheap.
	lists *gocache.Cache
}

func NewQueryUsecase(commits CommitRepository, labels LabelRepository, defaultPage, maxPage int) *QueryUsecase {
	if defaultPage <= 0 {
		defaultPage = 100
	}
	if maxPage <= 0 {
		maxPage = 1000
	}
	return &QueryUsecase{
		commits:     commits,
		labels:      labels,
		defaultPage: defaultPage,
		maxPage:     maxPage,
		lists:       gocache.New(30*time.Second, time.Minute),
	}
}

// Commits returns one filtered, paged result set. Each row carries its
// derived URL and label list; shared rows with a change identifier also
// carry up to relatedCommitCap counterparts from the other tree.
func (uc *QueryUsecase) Commits(ctx context.Context, opts QueryOptions) (QueryResult, error) {
	ctx, span := tracer.Start(ctx, "Query.Usecase.Commits")
	defer span.End()

	limit, err := uc.resolveLimit(opts)
	if err != nil {
		return QueryResult{}, err
	}

	rows, total, err := uc.commits.Query(ctx, opts.Filter, limit, opts.Offset)
	if err != nil {
		span.RecordError(err)
		return QueryResult{}, errors.Wrap(err, "querying commits")
	}

	commits := make([]domain.Commit, 0, len(rows))
	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		c := row.Commit
		c.URL = DeriveURL(row)
		c.Labels = []domain.Label{}
		commits = append(commits, c)
		hashes = append(hashes, c.Hash)
	}

	if len(hashes) > 0 {
		labelsByHash, err := uc.labels.ForCommits(ctx, hashes)
		if err != nil {
			span.RecordError(err)
			return QueryResult{}, errors.Wrap(err, "loading commit labels")
		}
		for i := range commits {
			if attached, ok := labelsByHash[commits[i].Hash]; ok {
				commits[i].Labels = attached
			}
		}
	}

	if err := uc.attachRelated(ctx, commits); err != nil {
		span.RecordError(err)
		return QueryResult{}, err
	}

	return QueryResult{Total: total, Commits: commits}, nil
}

func (uc *QueryUsecase) resolveLimit(opts QueryOptions) (int, error) {
	limit := opts.Limit
	if limit < 0 {
		return 0, domain.MalformedInputError{Reason: "negative limit"}
	}
	if limit == 0 {
		if opts.Unbounded {
			// "No limit" is an opt-in that still lands on the ceiling.
			return uc.maxPage, nil
		}
		return uc.defaultPage, nil
	}
	if limit > uc.maxPage {
		if !opts.Unbounded {
			return 0, domain.LimitExceededError{Requested: limit, Ceiling: uc.maxPage}
		}
		return uc.maxPage, nil
	}
	return limit, nil
}

// attachRelated loads, for every shared commit with a change identifier,
// its counterparts carrying the same identifier under a different hash.
func (uc *QueryUsecase) attachRelated(ctx context.Context, commits []domain.Commit) error {
	idSet := make(map[string]struct{})
	var ids []string
	for _, c := range commits {
		if c.Classification == nil || *c.Classification != domain.ClassificationShared || c.ChangeID == "" {
			continue
		}
		if _, ok := idSet[c.ChangeID]; ok {
			continue
		}
		idSet[c.ChangeID] = struct{}{}
		ids = append(ids, c.ChangeID)
	}
	if len(ids) == 0 {
		return nil
	}

	relatives, err := uc.commits.ByChangeIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "loading related commits")
	}

	byChangeID := make(map[string][]domain.CommitWithRemote)
	for _, rel := range relatives {
		byChangeID[rel.ChangeID] = append(byChangeID[rel.ChangeID], rel)
	}

	for i := range commits {
		c := &commits[i]
		if _, ok := idSet[c.ChangeID]; !ok {
			continue
		}
		for _, rel := range byChangeID[c.ChangeID] {
			if rel.Hash == c.Hash {
				continue
			}
			related := rel.Commit
			related.URL = DeriveURL(rel)
			related.Labels = []domain.Label{}
			c.RelatedCommits = append(c.RelatedCommits, related)
			if len(c.RelatedCommits) == relatedCommitCap {
				break
			}
		}
	}
	return nil
}

// DeriveURL picks the commit's browse URL: the review-system URL from
// the message trailer is authoritative; otherwise one is built from the
// project's remote; otherwise there is none.
func DeriveURL(c domain.CommitWithRemote) string {
	if c.ReviewURL != "" {
		return c.ReviewURL
	}
	if c.RemoteURL != "" {
		return fmt.Sprintf("%s/%s/commit/%s", c.RemoteURL, c.Project, c.Hash)
	}
	return ""
}

// Stats returns commit counts per classification.
func (uc *QueryUsecase) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := uc.commits.CountByClassification(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting classifications")
	}
	return counts, nil
}

// Projects lists distinct project names seen in stored commits.
func (uc *QueryUsecase) Projects(ctx context.Context) ([]string, error) {
	if cached, ok := uc.lists.Get("projects"); ok {
		return cached.([]string), nil
	}
	projects, err := uc.commits.DistinctProjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing projects")
	}
	uc.lists.SetDefault("projects", projects)
	return projects, nil
}

// Authors lists distinct authors seen in stored commits.
func (uc *QueryUsecase) Authors(ctx context.Context) ([]string, error) {
	if cached, ok := uc.lists.Get("authors"); ok {
		return cached.([]string), nil
	}
	authors, err := uc.commits.DistinctAuthors(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing authors")
	}
	uc.lists.SetDefault("authors", authors)
	return authors, nil
}

// InvalidateLists drops the cached distinct lists after a rescan or
// reset.
func (uc *QueryUsecase) InvalidateLists() {
	uc.lists.Delete("projects")
	uc.lists.Delete("authors")
}
