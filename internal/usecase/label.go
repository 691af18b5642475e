package usecase

import (
	"context"

	"github.com/basediff/basediff/internal/domain"
)

type LabelUsecase struct {
	repo LabelRepository
}

func NewLabelUsecase(repo LabelRepository) *LabelUsecase {
	return &LabelUsecase{repo: repo}
}

func (uc *LabelUsecase) List(ctx context.Context) ([]domain.Label, error) {
	return uc.repo.List(ctx)
}

func (uc *LabelUsecase) Add(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, domain.MalformedInputError{Reason: "empty label name"}
	}
	return uc.repo.Add(ctx, name, false)
}

func (uc *LabelUsecase) Remove(ctx context.Context, id int64) error {
	return uc.repo.Remove(ctx, id)
}

// SetForCommit replaces the commit's label set.
func (uc *LabelUsecase) SetForCommit(ctx context.Context, hash string, labelIDs []int64) error {
	if hash == "" {
		return domain.MalformedInputError{Reason: "empty commit hash"}
	}
	return uc.repo.SetForCommit(ctx, hash, labelIDs)
}
