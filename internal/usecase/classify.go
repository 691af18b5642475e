package usecase

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/basediff/basediff/internal/domain"
)

var tracer = otel.Tracer("basediff")

// ClassifyUsecase partitions every distinct change identifier between
// the two trees and writes the resulting label onto each stored commit.
type ClassifyUsecase struct {
	commits  CommitRepository
	progress ProgressReporter

	// Concurrent classification runs must not interleave their
	// write-back phases; a later run could mix stale and fresh
	// partitions on the same record.
	mu sync.Mutex
}

func NewClassifyUsecase(commits CommitRepository, progress ProgressReporter) *ClassifyUsecase {
	if progress == nil {
		progress = NopProgress{}
	}
	return &ClassifyUsecase{commits: commits, progress: progress}
}

// Classify labels every stored commit as shared, upstream_only, or
// vendor_only, given the project names of each tree.
//
// Safe to re-run: an unchanged data set yields an identical result. A
// failure between write-back steps leaves some records unclassified,
// which is a valid, re-runnable state. Empty project sets are valid
// input; all records then fall through to the project-membership
// fallback, and without project context everything becomes shared.
func (uc *ClassifyUsecase) Classify(ctx context.Context, upstreamProjects, vendorProjects []string) (domain.DiffSummary, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Classify.Usecase.Classify")
	defer span.End()

	uc.progress.Publish(ctx, domain.Progress{
		Stage:   domain.StageDiffAnalysis,
		Message: "loading change identifiers",
	})

	idsUpstream, err := uc.commits.DistinctChangeIDs(ctx, upstreamProjects)
	if err != nil {
		span.RecordError(err)
		return domain.DiffSummary{}, errors.Wrap(err, "loading upstream change ids")
	}
	idsVendor, err := uc.commits.DistinctChangeIDs(ctx, vendorProjects)
	if err != nil {
		span.RecordError(err)
		return domain.DiffSummary{}, errors.Wrap(err, "loading vendor change ids")
	}

	shared, upstreamOnly, vendorOnly := partitionChangeIDs(idsUpstream, idsVendor)

	summary := domain.DiffSummary{
		TotalUpstream: len(idsUpstream),
		TotalVendor:   len(idsVendor),
		Shared:        len(shared),
		UpstreamOnly:  len(upstreamOnly),
		VendorOnly:    len(vendorOnly),
	}

	uc.progress.Publish(ctx, domain.Progress{
		Stage:   domain.StageDiffAnalysis,
		Message: "writing classifications",
	})

	// Each partition's write-back is all-or-nothing inside the
	// repository; a failure here leaves later partitions null.
	writes := []struct {
		ids   []string
		label domain.Classification
	}{
		{shared, domain.ClassificationShared},
		{upstreamOnly, domain.ClassificationUpstreamOnly},
		{vendorOnly, domain.ClassificationVendorOnly},
	}
	for _, w := range writes {
		if len(w.ids) == 0 {
			continue
		}
		if _, err := uc.commits.SetClassificationByChangeIDs(ctx, w.ids, w.label); err != nil {
			span.RecordError(err)
			return domain.DiffSummary{}, errors.Wrapf(err, "labeling %s partition", w.label)
		}
	}

	if err := uc.classifyUnidentified(ctx, upstreamProjects, vendorProjects); err != nil {
		span.RecordError(err)
		return domain.DiffSummary{}, err
	}

	return summary, nil
}

// classifyUnidentified handles commits with no change identifier: a
// project claimed by exactly one tree labels its commits after that
// tree; a project claimed by both trees (or by neither) falls back to
// shared. Content-hash equality across trees is deliberately not
// checked, so shared-project commits without an identifier cannot be
// told apart.
func (uc *ClassifyUsecase) classifyUnidentified(ctx context.Context, upstreamProjects, vendorProjects []string) error {
	projects, err := uc.commits.ProjectsWithoutChangeID(ctx)
	if err != nil {
		return errors.Wrap(err, "loading projects without change ids")
	}
	if len(projects) == 0 {
		return nil
	}

	upstreamExclusive, vendorExclusive, rest := bucketProjects(projects, upstreamProjects, vendorProjects)

	writes := []struct {
		projects []string
		label    domain.Classification
	}{
		{upstreamExclusive, domain.ClassificationUpstreamOnly},
		{vendorExclusive, domain.ClassificationVendorOnly},
		{rest, domain.ClassificationShared},
	}
	for _, w := range writes {
		if len(w.projects) == 0 {
			continue
		}
		if _, err := uc.commits.SetClassificationByProjectsWithoutChangeID(ctx, w.projects, w.label); err != nil {
			return errors.Wrapf(err, "labeling unidentified commits as %s", w.label)
		}
	}
	return nil
}
