package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/basediff/basediff/internal/domain"
)

const (
	progressChannel = "basediff:progress"
	progressKey     = "basediff:progress:current"
)

// ProgressService is the explicit progress handle passed into
// long-running operations. Events fan out over a redis channel for push
// consumers and land in a keyed snapshot for polling consumers.
type ProgressService struct {
	rdb *redis.Client
}

func NewProgressService(redisClient *redis.Client) *ProgressService {
	return &ProgressService{rdb: redisClient}
}

// Publish records p as the current snapshot and notifies subscribers.
// Reporting is best-effort; a failed publish never fails the operation
// that emitted it.
func (s *ProgressService) Publish(ctx context.Context, p domain.Progress) {
	if p.TotalSteps > 0 && p.Percentage == 0 {
		p.Percentage = p.CurrentStep * 100 / p.TotalSteps
	}

	jsonstr, err := json.Marshal(p)
	if err != nil {
		slog.Error("failed to marshal progress",
			slog.String("error", err.Error()),
			slog.String("module", "progress"),
		)
		return
	}

	if err := s.rdb.Set(ctx, progressKey, jsonstr, 0).Err(); err != nil {
		slog.Warn("failed to store progress snapshot",
			slog.String("error", err.Error()),
			slog.String("module", "progress"),
		)
	}
	if err := s.rdb.Publish(ctx, progressChannel, jsonstr).Err(); err != nil {
		slog.Warn("failed to publish progress event",
			slog.String("error", err.Error()),
			slog.String("module", "progress"),
		)
	}
}

// Current returns the latest snapshot, or an idle one when nothing has
// run yet.
func (s *ProgressService) Current(ctx context.Context) (domain.Progress, error) {
	val, err := s.rdb.Get(ctx, progressKey).Result()
	if err == redis.Nil {
		return domain.Progress{Stage: domain.StageIdle}, nil
	}
	if err != nil {
		return domain.Progress{}, err
	}

	var p domain.Progress
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return domain.Progress{}, err
	}
	return p, nil
}

// Stream delivers progress events to output until ctx is done.
func (s *ProgressService) Stream(ctx context.Context, output chan<- domain.Progress) {
	pubsub := s.rdb.Subscribe(ctx, progressChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var p domain.Progress
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				slog.Warn("dropping malformed progress event",
					slog.String("error", err.Error()),
					slog.String("module", "progress"),
				)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case output <- p:
			}
		}
	}
}
