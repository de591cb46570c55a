package service

import (
	"context"

	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

// CommitteeCache keeps the per caller committee list. Every method is best effort.
type CommitteeCache interface {
	GetCommittees(ctx context.Context, p model.Principal) ([]*model.Committee, bool, error)
	SetCommittees(ctx context.Context, p model.Principal, committees []*model.Committee) error
	Invalidate(ctx context.Context, userIDs ...int64) error
}

type noopCache struct{}

func (noopCache) GetCommittees(context.Context, model.Principal) ([]*model.Committee, bool, error) {
	return nil, false, nil
}

func (noopCache) SetCommittees(context.Context, model.Principal, []*model.Committee) error {
	return nil
}

func (noopCache) Invalidate(context.Context, ...int64) error {
	return nil
}

func invalidate(ctx context.Context, c CommitteeCache, userIDs []int64) {
	if len(userIDs) == 0 {
		return
	}
	if err := c.Invalidate(ctx, userIDs...); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate committee cache",
			zap.Int64s("user_ids", userIDs),
			zap.Error(err))
	}
}
