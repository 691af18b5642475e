package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/basediff/basediff/internal/domain"
	"github.com/basediff/basediff/internal/infra/database/models"
)

const projectColumns = 3

type ProjectRepository struct {
	db      *gorm.DB
	ceiling int
}

func NewProjectRepository(db *gorm.DB, batchCeiling int) *ProjectRepository {
	if batchCeiling <= 0 {
		batchCeiling = 500
	}
	return &ProjectRepository{db: db, ceiling: batchCeiling}
}

// UpsertAll writes manifest projects with replace-on-conflict semantics:
// re-reading a manifest refreshes remote URL and path.
func (r *ProjectRepository) UpsertAll(ctx context.Context, projects []domain.Project) error {
	rowsPerChunk := r.ceiling / projectColumns
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}

	records := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		records = append(records, models.Project{
			Name:      p.Name,
			RemoteURL: p.RemoteURL,
			Path:      p.Path,
		})
	}

	err := forEachBatch(records, rowsPerChunk, func(chunk []models.Project) error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"remote_url", "path"}),
		}).Create(&chunk).Error
	})
	if err != nil {
		return domain.StorageError{Op: "upsert projects", Err: err}
	}
	return nil
}
