package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/basediff/basediff/internal/domain"
	"github.com/basediff/basediff/internal/infra/database/models"
)

type LabelRepository struct {
	db      *gorm.DB
	ceiling int
}

func NewLabelRepository(db *gorm.DB, batchCeiling int) *LabelRepository {
	if batchCeiling <= 0 {
		batchCeiling = 500
	}
	return &LabelRepository{db: db, ceiling: batchCeiling}
}

func (r *LabelRepository) List(ctx context.Context) ([]domain.Label, error) {
	var records []models.Label
	err := r.db.WithContext(ctx).
		Order("is_default DESC").
		Order("name ASC").
		Find(&records).Error
	if err != nil {
		return nil, domain.StorageError{Op: "list labels", Err: err}
	}

	labels := make([]domain.Label, 0, len(records))
	for _, record := range records {
		labels = append(labels, domain.Label{
			ID:        record.ID,
			Name:      record.Name,
			IsDefault: record.IsDefault,
		})
	}
	return labels, nil
}

func (r *LabelRepository) Add(ctx context.Context, name string, isDefault bool) (int64, error) {
	record := models.Label{Name: name, IsDefault: isDefault}
	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return 0, domain.StorageError{Op: "add label", Err: err}
	}
	return record.ID, nil
}

func (r *LabelRepository) Remove(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Label{}, "id = ?", id)
	if res.Error != nil {
		return domain.StorageError{Op: "remove label", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "label"}
	}
	return nil
}

// SetForCommit replaces the commit's label set.
func (r *LabelRepository) SetForCommit(ctx context.Context, hash string, labelIDs []int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CommitLabel{}, "commit_hash = ?", hash).Error; err != nil {
			return err
		}
		for _, id := range labelIDs {
			link := models.CommitLabel{CommitHash: hash, LabelID: id}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.StorageError{Op: "set commit labels", Err: err}
	}
	return nil
}

// ForCommits loads the labels attached to each of the given hashes.
func (r *LabelRepository) ForCommits(ctx context.Context, hashes []string) (map[string][]domain.Label, error) {
	type linkRow struct {
		CommitHash string
		ID         int64
		Name       string
		IsDefault  bool
	}

	rows, err := collectBatches(hashes, r.ceiling, func(chunk []string) ([]linkRow, error) {
		var rows []linkRow
		err := r.db.WithContext(ctx).Model(&models.CommitLabel{}).
			Select("commit_labels.commit_hash, labels.id, labels.name, labels.is_default").
			Joins("JOIN labels ON labels.id = commit_labels.label_id").
			Where("commit_labels.commit_hash IN ?", chunk).
			Order("labels.name ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, domain.StorageError{Op: "labels for commits", Err: err}
	}

	out := make(map[string][]domain.Label)
	for _, row := range rows {
		out[row.CommitHash] = append(out[row.CommitHash], domain.Label{
			ID:        row.ID,
			Name:      row.Name,
			IsDefault: row.IsDefault,
		})
	}
	return out, nil
}
