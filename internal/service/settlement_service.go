package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/repository"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

type SettlementService struct {
	tx    db.Transactor
	cache CommitteeCache
	clock Clock

	committees    repository.CommitteeRepository
	members       repository.MemberRepository
	draws         repository.DrawRepository
	userWiseDraws repository.UserWiseDrawRepository
}

func NewSettlementService(tx db.Transactor) *SettlementService {
	return &SettlementService{
		tx:    tx,
		cache: noopCache{},
		clock: SystemClock,
	}
}

// RecordPayment computes what the member owes for the draw and stores it with the fine.
func (s *SettlementService) RecordPayment(ctx context.Context, caller model.Principal, req *model.DrawPayment) (*model.UserWiseDraw, *Error) {
	l := logger.FromContext(ctx).With(
		zap.Int64("committee_id", req.CommitteeID),
		zap.Int64("draw_id", req.DrawID),
		zap.Int64("user_id", req.UserID),
	)
	l.Info("recording draw payment", zap.Int64("admin_id", caller.ID))

	if !caller.IsAdmin() {
		l.Warn("payment recorded by non admin", zap.Int64("caller_id", caller.ID))
		return nil, errAdminOnly()
	}

	var res *repository.UserWiseDraw

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c, sErr := s.getCommittee(txCtx, req.CommitteeID)
		if sErr != nil {
			return sErr
		}
		if c.CreatedBy != caller.ID {
			l.Warn("payment recorded by non owner", zap.Int64("admin_id", caller.ID))
			return NewError(ErrorCodeNotFound, "committee not found")
		}

		isMember, err := s.members.Exists(txCtx, c.ID, req.UserID)
		if err != nil {
			l.Error("failed to check membership", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check membership")
		}
		if !isMember {
			l.Warn("user is not a committee member")
			return NewError(ErrorCodeNotFound, "user is not a committee member")
		}

		now := s.clock.Now()
		fine := fineFor(c, now)

		var due decimal.Decimal
		switch c.Type {
		case model.CommitteeTypeNormal:
			due, sErr = s.normalDue(txCtx, c, req, now)
		case model.CommitteeTypeLottery:
			due, sErr = s.lotteryDue(txCtx, c, req, now)
		default:
			l.Error("invalid committee type", zap.String("committee_type", string(c.Type)))
			sErr = NewError(ErrorCodeInvalidCommitteeType, "invalid committee type")
		}
		if sErr != nil {
			return sErr
		}

		res, err = s.userWiseDraws.Upsert(txCtx, &repository.UserWiseDraw{
			CommitteeID:        c.ID,
			DrawID:             req.DrawID,
			UserID:             req.UserID,
			UserDrawAmountPaid: round2(due),
			FineAmountPaid:     round2(fine),
		})
		if err != nil {
			l.Error("failed to upsert user draw", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to record payment")
		}
		return nil
	})
	if sErr := asServiceError(err); sErr != nil {
		return nil, sErr
	}

	l.Debug("draw payment recorded",
		zap.Stringer("amount", res.UserDrawAmountPaid),
		zap.Stringer("fine", res.FineAmountPaid))

	return userWiseDrawFromRepo(res), nil
}

// normalDue splits what is left of the committee amount after the payout evenly between members.
func (s *SettlementService) normalDue(ctx context.Context, c *repository.Committee, req *model.DrawPayment, now time.Time) (decimal.Decimal, *Error) {
	d, sErr := s.startedDraw(ctx, c.ID, req.DrawID, now)
	if sErr != nil {
		return decimal.Zero, sErr
	}

	count, sErr := s.memberCount(ctx, c.ID)
	if sErr != nil {
		return decimal.Zero, sErr
	}

	return c.Amount.Sub(d.Amount).Div(decimal.NewFromInt(int64(count))), nil
}

// lotteryDue is the member's claimed principal plus the lottery bonus once they have
// taken a draw, and the draw amount before that.
func (s *SettlementService) lotteryDue(ctx context.Context, c *repository.Committee, req *model.DrawPayment, now time.Time) (decimal.Decimal, *Error) {
	l := logger.FromContext(ctx)

	if !c.LotteryAmount.IsPositive() {
		l.Warn("lottery amount is not set", zap.Int64("committee_id", c.ID))
		return decimal.Zero, NewError(ErrorCodeLotteryNotConfigured, "lottery amount is not set")
	}

	d, sErr := s.startedDraw(ctx, c.ID, req.DrawID, now)
	if sErr != nil {
		return decimal.Zero, sErr
	}

	if _, sErr = s.memberCount(ctx, c.ID); sErr != nil {
		return decimal.Zero, sErr
	}

	claimed, err := s.userWiseDraws.FindCompletedByUser(ctx, c.ID, req.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return d.Amount, nil
	}
	if err != nil {
		l.Error("failed to find claimed draw",
			zap.Int64("committee_id", c.ID),
			zap.Int64("user_id", req.UserID),
			zap.Error(err))
		return decimal.Zero, NewError(ErrorCodeUnspecified, "failed to find claimed draw")
	}

	return claimed.UserDrawAmountPaid.Add(c.LotteryAmount), nil
}

// GetUserWiseDrawPaidAmount returns one settlement row per member for the draw,
// zero valued for members without one.
func (s *SettlementService) GetUserWiseDrawPaidAmount(ctx context.Context, committeeID, drawID int64) ([]*model.UserWiseDraw, *Error) {
	l := logger.FromContext(ctx).With(zap.Int64("committee_id", committeeID), zap.Int64("draw_id", drawID))
	l.Debug("getting user wise draw payments")

	if _, sErr := s.getCommittee(ctx, committeeID); sErr != nil {
		return nil, sErr
	}
	if _, sErr := s.startedDraw(ctx, committeeID, drawID, s.clock.Now()); sErr != nil {
		return nil, sErr
	}

	members, err := s.members.ListWithUsers(ctx, committeeID)
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	rows, err := s.userWiseDraws.ListByDraw(ctx, committeeID, drawID)
	if err != nil {
		l.Error("failed to list user draws", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list user draws")
	}

	byUser := make(map[int64]*repository.UserWiseDraw, len(rows))
	for _, r := range rows {
		byUser[r.UserID] = r
	}

	res := make([]*model.UserWiseDraw, 0, len(members))
	for _, m := range members {
		if r, ok := byUser[m.UserID]; ok {
			res = append(res, userWiseDrawFromRepo(r))
			continue
		}
		res = append(res, placeholderDraw(committeeID, drawID, &m.User))
	}
	return res, nil
}

// UpdateDrawAmount sets the payout of a started draw. The amount can be set only once.
func (s *SettlementService) UpdateDrawAmount(ctx context.Context, caller model.Principal, req *model.DrawAmountUpdate) (*model.Draw, *Error) {
	l := logger.FromContext(ctx).With(
		zap.Int64("committee_id", req.CommitteeID),
		zap.Int64("draw_id", req.DrawID),
	)
	l.Info("updating draw amount", zap.Int64("admin_id", caller.ID), zap.Stringer("amount", req.Amount))

	if !caller.IsAdmin() {
		l.Warn("draw amount updated by non admin", zap.Int64("caller_id", caller.ID))
		return nil, errAdminOnly()
	}

	amount := round2(req.Amount)

	var res *repository.Draw

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c, sErr := s.getCommittee(txCtx, req.CommitteeID)
		if sErr != nil {
			return sErr
		}
		if c.CreatedBy != caller.ID {
			l.Warn("draw amount updated by non owner", zap.Int64("admin_id", caller.ID))
			return NewError(ErrorCodeForbidden, "you are not authorized to update draw amount")
		}

		d, sErr := s.lockDraw(txCtx, c.ID, req.DrawID)
		if sErr != nil {
			return sErr
		}
		if !drawStarted(d.Date, s.clock.Now()) {
			l.Warn("draw not started yet", zap.Time("draw_date", d.Date))
			return NewError(ErrorCodeDrawNotStarted, "draw not started yet")
		}
		if !d.Amount.IsZero() {
			l.Warn("draw amount already set", zap.Stringer("current", d.Amount))
			return NewError(ErrorCodeDrawAmountSet, "draw amount already updated")
		}
		if amount.LessThan(d.MinAmount) {
			l.Warn("draw amount below minimum", zap.Stringer("min_amount", d.MinAmount))
			return NewError(ErrorCodeAmountBelowMin, "draw amount cannot be less than the "+d.MinAmount.StringFixed(2))
		}

		var err error
		res, err = s.draws.SetAmount(txCtx, d.ID, amount)
		if errors.Is(err, repository.ErrConflict) {
			l.Warn("draw amount already set")
			return NewError(ErrorCodeDrawAmountSet, "draw amount already updated")
		}
		if err != nil {
			l.Error("failed to set draw amount", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update draw amount")
		}
		return nil
	})
	if sErr := asServiceError(err); sErr != nil {
		return nil, sErr
	}

	return drawFromRepo(res), nil
}

// CompleteDraw marks that the member took the draw payout. A draw is taken by one
// member and a member takes one draw per committee. Completing the last draw
// completes the committee.
func (s *SettlementService) CompleteDraw(ctx context.Context, caller model.Principal, req *model.DrawPayment) (*model.UserWiseDraw, *Error) {
	l := logger.FromContext(ctx).With(
		zap.Int64("committee_id", req.CommitteeID),
		zap.Int64("draw_id", req.DrawID),
		zap.Int64("user_id", req.UserID),
	)
	l.Info("completing draw", zap.Int64("admin_id", caller.ID))

	if !caller.IsAdmin() {
		l.Warn("draw completed by non admin", zap.Int64("caller_id", caller.ID))
		return nil, errAdminOnly()
	}

	var (
		res         *repository.UserWiseDraw
		invalidated []int64
	)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c, sErr := s.getCommittee(txCtx, req.CommitteeID)
		if sErr != nil {
			return sErr
		}
		if c.CreatedBy != caller.ID {
			l.Warn("draw completed by non owner", zap.Int64("admin_id", caller.ID))
			return NewError(ErrorCodeForbidden, "you are not authorized to complete this draw")
		}

		if _, sErr = s.lockDraw(txCtx, c.ID, req.DrawID); sErr != nil {
			return sErr
		}

		_, err := s.userWiseDraws.FindCompletedByUser(txCtx, c.ID, req.UserID)
		if err == nil {
			l.Warn("user has already taken a draw")
			return NewError(ErrorCodeUserDrawTaken, "user has already taken the draw")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			l.Error("failed to find claimed draw of user", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check user draw")
		}

		_, err = s.userWiseDraws.FindCompletedByDraw(txCtx, c.ID, req.DrawID)
		if err == nil {
			l.Warn("draw already taken by another user")
			return NewError(ErrorCodeDrawTaken, "this draw is already taken by other user")
		}
		if !errors.Is(err, repository.ErrNotFound) {
			l.Error("failed to find claim of draw", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check draw")
		}

		res, err = s.userWiseDraws.MarkCompleted(txCtx, c.ID, req.DrawID, req.UserID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			l.Warn("payment not recorded for draw")
			return NewError(ErrorCodePaymentRequired, "first mark paid payment")
		case errors.Is(err, repository.ErrUserClaimed):
			l.Warn("user has already taken a draw")
			return NewError(ErrorCodeUserDrawTaken, "user has already taken the draw")
		case errors.Is(err, repository.ErrDrawClaimed):
			l.Warn("draw already taken by another user")
			return NewError(ErrorCodeDrawTaken, "this draw is already taken by other user")
		case err != nil:
			l.Error("failed to complete draw", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to complete draw")
		}

		invalidated, sErr = s.completeCommittee(txCtx, c)
		if sErr != nil {
			return sErr
		}
		return nil
	})
	if sErr := asServiceError(err); sErr != nil {
		return nil, sErr
	}

	invalidate(ctx, s.cache, invalidated)

	l.Debug("draw completed")

	return userWiseDrawFromRepo(res), nil
}

// completeCommittee moves an active committee to COMPLETED once every draw has been taken.
// It returns the users whose committee lists changed.
func (s *SettlementService) completeCommittee(ctx context.Context, c *repository.Committee) ([]int64, *Error) {
	l := logger.FromContext(ctx).With(zap.Int64("committee_id", c.ID))

	if c.Status != model.CommitteeStatusActive {
		return nil, nil
	}

	total, err := s.draws.Count(ctx, c.ID)
	if err != nil {
		l.Error("failed to count draws", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to count draws")
	}
	completed, err := s.userWiseDraws.CountCompleted(ctx, c.ID)
	if err != nil {
		l.Error("failed to count completed draws", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to count completed draws")
	}
	if total == 0 || completed < total {
		return nil, nil
	}

	err = s.committees.UpdateStatus(ctx, c.ID, model.CommitteeStatusActive, model.CommitteeStatusCompleted)
	if errors.Is(err, repository.ErrConflict) {
		l.Warn("committee already left active status")
		return nil, nil
	}
	if err != nil {
		l.Error("failed to complete committee", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to complete committee")
	}

	members, err := s.members.ListByCommittee(ctx, c.ID)
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	ids := make([]int64, 0, len(members)+1)
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	ids = append(ids, c.CreatedBy)

	l.Info("committee completed", zap.Int("draws", total))
	return ids, nil
}

func (s *SettlementService) getCommittee(ctx context.Context, committeeID int64) (*repository.Committee, *Error) {
	l := logger.FromContext(ctx)

	c, err := s.committees.Get(ctx, committeeID)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("committee not found", zap.Int64("committee_id", committeeID))
		return nil, NewError(ErrorCodeNotFound, "committee not found")
	}
	if err != nil {
		l.Error("failed to get committee", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get committee")
	}
	return c, nil
}

func (s *SettlementService) startedDraw(ctx context.Context, committeeID, drawID int64, now time.Time) (*repository.Draw, *Error) {
	d, err := s.draws.Get(ctx, drawID)
	if sErr := s.checkDraw(ctx, committeeID, drawID, d, err); sErr != nil {
		return nil, sErr
	}
	if !drawStarted(d.Date, now) {
		logger.FromContext(ctx).Warn("draw not started yet",
			zap.Int64("draw_id", drawID),
			zap.Time("draw_date", d.Date))
		return nil, NewError(ErrorCodeDrawNotStarted, "draw not started yet")
	}
	return d, nil
}

func (s *SettlementService) lockDraw(ctx context.Context, committeeID, drawID int64) (*repository.Draw, *Error) {
	d, err := s.draws.GetForUpdate(ctx, drawID)
	if sErr := s.checkDraw(ctx, committeeID, drawID, d, err); sErr != nil {
		return nil, sErr
	}
	return d, nil
}

func (s *SettlementService) checkDraw(ctx context.Context, committeeID, drawID int64, d *repository.Draw, err error) *Error {
	l := logger.FromContext(ctx).With(zap.Int64("committee_id", committeeID), zap.Int64("draw_id", drawID))

	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("draw not found")
		return NewError(ErrorCodeNotFound, "draw not found")
	}
	if err != nil {
		l.Error("failed to get draw", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to get draw")
	}
	if d.CommitteeID != committeeID {
		l.Warn("draw belongs to another committee", zap.Int64("draw_committee_id", d.CommitteeID))
		return NewError(ErrorCodeNotFound, "draw not found")
	}
	return nil
}

func (s *SettlementService) memberCount(ctx context.Context, committeeID int64) (int, *Error) {
	l := logger.FromContext(ctx).With(zap.Int64("committee_id", committeeID))

	count, err := s.members.Count(ctx, committeeID)
	if err != nil {
		l.Error("failed to count members", zap.Error(err))
		return 0, NewError(ErrorCodeUnspecified, "failed to count members")
	}
	if count == 0 {
		l.Warn("committee has no members")
		return 0, NewError(ErrorCodeNoMembers, "no committee members")
	}
	return count, nil
}

func (s *SettlementService) WithCommitteeRepo(r repository.CommitteeRepository) *SettlementService {
	s.committees = r
	return s
}

func (s *SettlementService) WithMemberRepo(r repository.MemberRepository) *SettlementService {
	s.members = r
	return s
}

func (s *SettlementService) WithDrawRepo(r repository.DrawRepository) *SettlementService {
	s.draws = r
	return s
}

func (s *SettlementService) WithUserWiseDrawRepo(r repository.UserWiseDrawRepository) *SettlementService {
	s.userWiseDraws = r
	return s
}

func (s *SettlementService) WithCache(c CommitteeCache) *SettlementService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *SettlementService) WithClock(c Clock) *SettlementService {
	s.clock = c
	return s
}
