package repository

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/basediff/basediff/internal/domain"
	"github.com/basediff/basediff/internal/infra/database/models"
)

// commitColumns is the number of bound parameters one inserted commit
// row consumes; bulk inserts are chunked so rows*columns stays under the
// batch ceiling.
const commitColumns = 10

type CommitRepository struct {
	db      *gorm.DB
	ceiling int
}

func NewCommitRepository(db *gorm.DB, batchCeiling int) *CommitRepository {
	if batchCeiling <= 0 {
		batchCeiling = 500
	}
	return &CommitRepository{db: db, ceiling: batchCeiling}
}

// BulkInsert writes commits with first-write-wins semantics: a hash
// already present keeps its stored values. Returns the number of rows
// actually inserted.
func (r *CommitRepository) BulkInsert(ctx context.Context, commits []domain.Commit) (int64, error) {
	rowsPerChunk := r.ceiling / commitColumns
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}

	records := make([]models.Commit, 0, len(commits))
	for _, c := range commits {
		records = append(records, models.Commit{
			Hash:       c.Hash,
			Project:    c.Project,
			ChangeID:   c.ChangeID,
			Author:     c.Author,
			CommitDate: c.CommitDate,
			Subject:    c.Subject,
			Body:       c.Body,
			ReviewURL:  c.ReviewURL,
		})
	}

	inserted, err := countBatches(records, rowsPerChunk, func(chunk []models.Commit) (int64, error) {
		res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&chunk)
		if res.Error != nil {
			return 0, res.Error
		}
		return res.RowsAffected, nil
	})
	if err != nil {
		return 0, domain.StorageError{Op: "bulk insert commits", Err: err}
	}
	return inserted, nil
}

// DistinctChangeIDs returns the sorted distinct non-empty change
// identifiers among commits of the given projects.
func (r *CommitRepository) DistinctChangeIDs(ctx context.Context, projects []string) ([]string, error) {
	collected, err := collectBatches(projects, r.ceiling, func(chunk []string) ([]string, error) {
		var ids []string
		err := r.db.WithContext(ctx).Model(&models.Commit{}).
			Distinct("change_id").
			Where("project IN ?", chunk).
			Where("change_id <> ''").
			Pluck("change_id", &ids).Error
		if err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, domain.StorageError{Op: "distinct change ids", Err: err}
	}
	// The same identifier can surface from more than one chunk.
	return dedupeSorted(collected), nil
}

// SetClassificationByChangeIDs labels every commit whose change
// identifier is in changeIDs. The whole partition commits atomically.
func (r *CommitRepository) SetClassificationByChangeIDs(ctx context.Context, changeIDs []string, label domain.Classification) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := countBatches(changeIDs, r.ceiling, func(chunk []string) (int64, error) {
			res := tx.Model(&models.Commit{}).
				Where("change_id IN ?", chunk).
				Update("classification", string(label))
			return res.RowsAffected, res.Error
		})
		updated = n
		return err
	})
	if err != nil {
		return 0, domain.StorageError{Op: "classify by change id", Err: err}
	}
	return updated, nil
}

// ProjectsWithoutChangeID returns the sorted distinct projects that have
// at least one commit lacking a change identifier.
func (r *CommitRepository) ProjectsWithoutChangeID(ctx context.Context) ([]string, error) {
	var projects []string
	err := r.db.WithContext(ctx).Model(&models.Commit{}).
		Distinct("project").
		Where("change_id = ''").
		Order("project ASC").
		Pluck("project", &projects).Error
	if err != nil {
		return nil, domain.StorageError{Op: "projects without change id", Err: err}
	}
	return projects, nil
}

// SetClassificationByProjectsWithoutChangeID labels commits lacking a
// change identifier in the given projects. Atomic per call.
func (r *CommitRepository) SetClassificationByProjectsWithoutChangeID(ctx context.Context, projects []string, label domain.Classification) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := countBatches(projects, r.ceiling, func(chunk []string) (int64, error) {
			res := tx.Model(&models.Commit{}).
				Where("change_id = ''").
				Where("project IN ?", chunk).
				Update("classification", string(label))
			return res.RowsAffected, res.Error
		})
		updated = n
		return err
	})
	if err != nil {
		return 0, domain.StorageError{Op: "classify unidentified commits", Err: err}
	}
	return updated, nil
}

type commitRow struct {
	Hash           string
	Project        string
	ChangeID       string
	Author         string
	CommitDate     string
	Subject        string
	Body           string
	Classification *string
	ReviewURL      string
	RemoteURL      string
}

func (row commitRow) toDomain() domain.CommitWithRemote {
	var classification *domain.Classification
	if row.Classification != nil {
		c := domain.Classification(*row.Classification)
		classification = &c
	}
	return domain.CommitWithRemote{
		Commit: domain.Commit{
			Hash:           row.Hash,
			Project:        row.Project,
			ChangeID:       row.ChangeID,
			Author:         row.Author,
			CommitDate:     row.CommitDate,
			Subject:        row.Subject,
			Body:           row.Body,
			Classification: classification,
			ReviewURL:      row.ReviewURL,
		},
		RemoteURL: row.RemoteURL,
	}
}

const commitSelect = "commits.hash, commits.project, commits.change_id, commits.author, " +
	"commits.commit_date, commits.subject, commits.body, commits.classification, " +
	"commits.review_url, projects.remote_url"

func (r *CommitRepository) filtered(ctx context.Context, f domain.CommitFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Commit{})
	if f.Classification != nil {
		tx = tx.Where("commits.classification = ?", string(*f.Classification))
	}
	if f.Project != "" {
		tx = tx.Where("commits.project = ?", f.Project)
	}
	if f.Author != "" {
		tx = tx.Where("commits.author ILIKE ?", "%"+escapeLike(f.Author)+"%")
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		tx = tx.Where("commits.subject ILIKE ? OR commits.body ILIKE ?", pattern, pattern)
	}
	if f.Since != "" {
		tx = tx.Where("commits.commit_date >= ?", f.Since)
	}
	if f.Until != "" {
		tx = tx.Where("commits.commit_date <= ?", f.Until)
	}
	return tx
}

// Query returns one page of commits matching the filter, newest first
// with hash order breaking timestamp ties, plus the total match count
// ignoring paging.
func (r *CommitRepository) Query(ctx context.Context, f domain.CommitFilter, limit, offset int) ([]domain.CommitWithRemote, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, domain.StorageError{Op: "count commits", Err: err}
	}

	tx := r.filtered(ctx, f).
		Select(commitSelect).
		Joins("LEFT JOIN projects ON projects.name = commits.project").
		Order("commits.commit_date DESC").
		Order("commits.hash ASC").
		Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []commitRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, 0, domain.StorageError{Op: "query commits", Err: err}
	}

	out := make([]domain.CommitWithRemote, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

// ByChangeIDs returns all commits carrying any of the given change
// identifiers, with their project's remote URL attached.
func (r *CommitRepository) ByChangeIDs(ctx context.Context, changeIDs []string) ([]domain.CommitWithRemote, error) {
	rows, err := collectBatches(changeIDs, r.ceiling, func(chunk []string) ([]commitRow, error) {
		var rows []commitRow
		err := r.db.WithContext(ctx).Model(&models.Commit{}).
			Select(commitSelect).
			Joins("LEFT JOIN projects ON projects.name = commits.project").
			Where("commits.change_id IN ?", chunk).
			Order("commits.hash ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, domain.StorageError{Op: "commits by change id", Err: err}
	}

	out := make([]domain.CommitWithRemote, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// DistinctProjects lists every project name appearing in stored commits.
func (r *CommitRepository) DistinctProjects(ctx context.Context) ([]string, error) {
	var projects []string
	err := r.db.WithContext(ctx).Model(&models.Commit{}).
		Distinct("project").
		Order("project ASC").
		Pluck("project", &projects).Error
	if err != nil {
		return nil, domain.StorageError{Op: "distinct projects", Err: err}
	}
	return projects, nil
}

// DistinctAuthors lists every author appearing in stored commits.
func (r *CommitRepository) DistinctAuthors(ctx context.Context) ([]string, error) {
	var authors []string
	err := r.db.WithContext(ctx).Model(&models.Commit{}).
		Distinct("author").
		Order("author ASC").
		Pluck("author", &authors).Error
	if err != nil {
		return nil, domain.StorageError{Op: "distinct authors", Err: err}
	}
	return authors, nil
}

// CountByClassification returns commit counts keyed by classification.
// Unclassified rows count under the empty key.
func (r *CommitRepository) CountByClassification(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Classification *string
		Count          int64
	}
	err := r.db.WithContext(ctx).Model(&models.Commit{}).
		Select("classification, count(*) as count").
		Group("classification").
		Scan(&rows).Error
	if err != nil {
		return nil, domain.StorageError{Op: "count by classification", Err: err}
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := ""
		if row.Classification != nil {
			key = *row.Classification
		}
		counts[key] += row.Count
	}
	return counts, nil
}

// Reset clears all commits, projects, and label associations. Labels
// themselves survive. Destructive, no undo.
func (r *CommitRepository) Reset(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM commit_labels").Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM commits").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM projects").Error
	})
	if err != nil {
		return domain.StorageError{Op: "reset", Err: err}
	}
	return nil
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
