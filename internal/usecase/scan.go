package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/basediff/basediff/internal/domain"
)

// ScanInput names the two tree checkouts to compare.
type ScanInput struct {
	UpstreamPath string `json:"upstreamPath"`
	VendorPath   string `json:"vendorPath"`
}

// ScanResult summarizes one full scan-and-classify cycle.
type ScanResult struct {
	UpstreamProjects int                `json:"upstreamProjects"`
	VendorProjects   int                `json:"vendorProjects"`
	TotalCommits     int64              `json:"totalCommits"`
	Diff             domain.DiffSummary `json:"diffStats"`
}

// ScanUsecase orchestrates one update cycle: clear the store, read both
// manifests, read every project's log, bulk-ingest, then classify.
// Classification must only read a fully loaded store, so the whole cycle
// runs as one sequential pass.
type ScanUsecase struct {
	manifests ManifestReader
	logs      LogReader
	commits   CommitRepository
	projects  ProjectRepository
	classify  *ClassifyUsecase
	progress  ProgressReporter
}

func NewScanUsecase(
	manifests ManifestReader,
	logs LogReader,
	commits CommitRepository,
	projects ProjectRepository,
	classify *ClassifyUsecase,
	progress ProgressReporter,
) *ScanUsecase {
	if progress == nil {
		progress = NopProgress{}
	}
	return &ScanUsecase{
		manifests: manifests,
		logs:      logs,
		commits:   commits,
		projects:  projects,
		classify:  classify,
		progress:  progress,
	}
}

func (uc *ScanUsecase) Scan(ctx context.Context, input ScanInput) (ScanResult, error) {
	ctx, span := tracer.Start(ctx, "Scan.Usecase.Scan")
	defer span.End()

	startTime := time.Now().UTC().Format(time.RFC3339)
	uc.progress.Publish(ctx, domain.Progress{
		Stage:     domain.StageStarted,
		Message:   "clearing previous data",
		StartTime: startTime,
	})

	result, err := uc.scan(ctx, input, startTime)
	if err != nil {
		span.RecordError(err)
		uc.progress.Publish(ctx, domain.Progress{
			Stage:   domain.StageError,
			Message: err.Error(),
			EndTime: time.Now().UTC().Format(time.RFC3339),
		})
		return ScanResult{}, err
	}

	uc.progress.Publish(ctx, domain.Progress{
		Stage:      domain.StageCompleted,
		Message:    "scan completed",
		Percentage: 100,
		StartTime:  startTime,
		EndTime:    time.Now().UTC().Format(time.RFC3339),
	})
	return result, nil
}

func (uc *ScanUsecase) scan(ctx context.Context, input ScanInput, startTime string) (ScanResult, error) {
	// Clear-all-then-bulk-reload: classification may otherwise read a
	// partially loaded state and mislabel.
	if err := uc.commits.Reset(ctx); err != nil {
		return ScanResult{}, errors.Wrap(err, "clearing store")
	}

	uc.progress.Publish(ctx, domain.Progress{
		Stage:     domain.StageManifestParsing,
		Message:   "reading manifests",
		StartTime: startTime,
	})

	upstream, err := uc.manifests.Read(input.UpstreamPath)
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "reading upstream manifest")
	}
	vendor, err := uc.manifests.Read(input.VendorPath)
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "reading vendor manifest")
	}

	if err := uc.projects.UpsertAll(ctx, upstream); err != nil {
		return ScanResult{}, errors.Wrap(err, "storing upstream projects")
	}
	if err := uc.projects.UpsertAll(ctx, vendor); err != nil {
		return ScanResult{}, errors.Wrap(err, "storing vendor projects")
	}

	all := make([]domain.Project, 0, len(upstream)+len(vendor))
	all = append(all, upstream...)
	all = append(all, vendor...)

	var totalCommits int64
	for i, project := range all {
		uc.progress.Publish(ctx, domain.Progress{
			Stage:       domain.StageGitScanning,
			CurrentStep: i + 1,
			TotalSteps:  len(all),
			CurrentItem: project.Name,
			Percentage:  (i + 1) * 100 / len(all),
			StartTime:   startTime,
		})

		// One broken project must not abort the others.
		records, err := uc.logs.Scan(ctx, project)
		if err != nil {
			slog.Warn("log read failed, continuing",
				slog.String("project", project.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(records) == 0 {
			continue
		}

		inserted, err := uc.commits.BulkInsert(ctx, records)
		if err != nil {
			return ScanResult{}, errors.Wrapf(err, "ingesting %s", project.Name)
		}
		totalCommits += inserted
	}

	diff, err := uc.classify.Classify(ctx, projectNames(upstream), projectNames(vendor))
	if err != nil {
		return ScanResult{}, errors.Wrap(err, "classifying commits")
	}

	return ScanResult{
		UpstreamProjects: len(upstream),
		VendorProjects:   len(vendor),
		TotalCommits:     totalCommits,
		Diff:             diff,
	}, nil
}

// Reset clears all stored commits, projects, and label links.
// Destructive, no undo.
func (uc *ScanUsecase) Reset(ctx context.Context) error {
	return uc.commits.Reset(ctx)
}

func projectNames(projects []domain.Project) []string {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return names
}
