package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/repository"
	"github.com/yakoovad/committee-engine/internal/validation"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

type CommitteeService struct {
	tx       db.Transactor
	validate *validator.Validate
	cache    CommitteeCache

	committees    repository.CommitteeRepository
	members       repository.MemberRepository
	draws         repository.DrawRepository
	userWiseDraws repository.UserWiseDrawRepository
}

func NewCommitteeService(tx db.Transactor) *CommitteeService {
	return &CommitteeService{
		tx:       tx,
		validate: validation.New(),
		cache:    noopCache{},
	}
}

func (s *CommitteeService) CreateCommittee(ctx context.Context, caller model.Principal, req *model.CommitteeCreate) (*model.Committee, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating committee", zap.Int64("admin_id", caller.ID), zap.String("committee_name", req.Name))

	if !caller.IsAdmin() {
		l.Warn("committee creation by non admin", zap.Int64("user_id", caller.ID))
		return nil, errAdminOnly()
	}

	if err := s.validate.Struct(req); err != nil {
		l.Warn("invalid committee", zap.Error(err))
		return nil, NewError(ErrorCodeInvalidBody, err.Error())
	}

	// Amounts are stored with two decimals, so the checks run on the stored values.
	amount := round2(req.Amount)
	lotteryAmount := round2(req.LotteryAmount)
	if !amount.IsPositive() {
		l.Warn("committee amount rounds to zero", zap.Stringer("committee_amount", req.Amount))
		return nil, NewError(ErrorCodeInvalidBody, "committee amount must be at least 0.01")
	}
	if req.Type == model.CommitteeTypeLottery && !lotteryAmount.IsPositive() {
		l.Warn("lottery committee without lottery amount",
			zap.String("committee_name", req.Name),
			zap.Stringer("lottery_amount", req.LotteryAmount))
		return nil, NewError(ErrorCodeInvalidBody, "lottery amount is required")
	}

	c := &repository.Committee{
		Name:             req.Name,
		Amount:           amount,
		MaxMembers:       req.MaxMembers,
		NoOfMonths:       req.NoOfMonths,
		Status:           model.CommitteeStatusInactive,
		Type:             req.Type,
		CreatedBy:        caller.ID,
		StartDate:        req.StartDate,
		EndDate:          endDateFor(req.StartDate, req.NoOfMonths),
		FineStartDate:    req.FineStartDate,
		FineAmount:       round2(req.FineAmount),
		ExtraDaysForFine: req.ExtraDaysForFine,
		LotteryAmount:    lotteryAmount,
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.committees.Create(txCtx, c); err != nil {
			l.Error("failed to create committee", zap.String("committee_name", req.Name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create committee")
		}
		return nil
	})
	if res := asServiceError(err); res != nil {
		return nil, res
	}

	invalidate(ctx, s.cache, []int64{caller.ID})

	l.Debug("committee created", zap.Int64("committee_id", c.ID))

	return committeeFromRepo(c), nil
}

// ListCommittees returns the committees an admin created, or those a user is a member of.
func (s *CommitteeService) ListCommittees(ctx context.Context, caller model.Principal) ([]*model.Committee, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("listing committees", zap.Int64("user_id", caller.ID), zap.String("role", string(caller.Role)))

	cached, ok, err := s.cache.GetCommittees(ctx, caller)
	if err != nil {
		l.Warn("failed to read committee cache", zap.Int64("user_id", caller.ID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	var list []*repository.Committee
	if caller.IsAdmin() {
		list, err = s.committees.ListByCreator(ctx, caller.ID)
	} else {
		list, err = s.committees.ListByMember(ctx, caller.ID)
	}
	if err != nil {
		l.Error("failed to list committees", zap.Int64("user_id", caller.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list committees")
	}

	res := make([]*model.Committee, 0, len(list))
	for _, c := range list {
		res = append(res, committeeFromRepo(c))
	}

	if err = s.cache.SetCommittees(ctx, caller, res); err != nil {
		l.Warn("failed to fill committee cache", zap.Int64("user_id", caller.ID), zap.Error(err))
	}

	return res, nil
}

// GetCommitteeAnalysis returns committee metadata with the caller's own payment totals.
func (s *CommitteeService) GetCommitteeAnalysis(ctx context.Context, caller model.Principal, committeeID int64) (*model.CommitteeAnalysis, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting committee analysis", zap.Int64("committee_id", committeeID), zap.Int64("user_id", caller.ID))

	c, sErr := s.getCommittee(ctx, committeeID)
	if sErr != nil {
		return nil, sErr
	}

	totalMembers, err := s.members.Count(ctx, committeeID)
	if err != nil {
		l.Error("failed to count members", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to count members")
	}

	rows, err := s.userWiseDraws.ListByUser(ctx, committeeID, caller.ID)
	if err != nil {
		l.Error("failed to list user draws",
			zap.Int64("committee_id", committeeID),
			zap.Int64("user_id", caller.ID),
			zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list user draws")
	}

	totalDraws, err := s.draws.Count(ctx, committeeID)
	if err != nil {
		l.Error("failed to count draws", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to count draws")
	}

	paid, fine := decimal.Zero, decimal.Zero
	for _, r := range rows {
		paid = paid.Add(r.UserDrawAmountPaid)
		fine = fine.Add(r.FineAmountPaid)
	}

	return &model.CommitteeAnalysis{
		CommitteeID:      c.ID,
		Name:             c.Name,
		Amount:           c.Amount,
		MaxMembers:       c.MaxMembers,
		Status:           c.Status,
		Type:             c.Type,
		NoOfMonths:       c.NoOfMonths,
		FineAmount:       c.FineAmount,
		ExtraDaysForFine: c.ExtraDaysForFine,
		StartDate:        c.StartDate,
		Analysis: model.AnalysisTotals{
			TotalMembers:             totalMembers,
			TotalCommitteeAmount:     c.Amount,
			TotalCommitteePaidAmount: round2(paid),
			TotalCommitteeFineAmount: round2(fine),
			NoOfDrawsCompleted:       len(rows),
			TotalDraws:               totalDraws,
		},
	}, nil
}

// GetCommitteeMembers lists members with totals over their settlement rows in the committee.
func (s *CommitteeService) GetCommitteeMembers(ctx context.Context, committeeID int64) ([]*model.CommitteeMember, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting committee members", zap.Int64("committee_id", committeeID))

	if _, sErr := s.getCommittee(ctx, committeeID); sErr != nil {
		return nil, sErr
	}

	members, err := s.members.ListWithUsers(ctx, committeeID)
	if err != nil {
		l.Error("failed to list members", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	rows, err := s.userWiseDraws.ListByCommittee(ctx, committeeID)
	if err != nil {
		l.Error("failed to list user draws", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list user draws")
	}

	stats := make(map[int64]*model.MemberStats, len(members))
	res := make([]*model.CommitteeMember, 0, len(members))
	for _, m := range members {
		st := &model.MemberStats{
			User:               userFromRepo(&m.User),
			UserDrawAmountPaid: decimal.Zero,
			FineAmountPaid:     decimal.Zero,
		}
		stats[m.UserID] = st
		res = append(res, &model.CommitteeMember{
			ID:          m.ID,
			CommitteeID: m.CommitteeID,
			UserID:      m.UserID,
			CreatedAt:   m.CreatedAt,
			User:        st,
		})
	}

	for _, r := range rows {
		st, ok := stats[r.UserID]
		if !ok {
			continue
		}
		st.UserDrawAmountPaid = st.UserDrawAmountPaid.Add(r.UserDrawAmountPaid)
		st.FineAmountPaid = st.FineAmountPaid.Add(r.FineAmountPaid)
		st.IsUserDrawCompleted = st.IsUserDrawCompleted || r.IsDrawCompleted
	}

	return res, nil
}

func (s *CommitteeService) GetCommitteeDraws(ctx context.Context, committeeID int64) ([]*model.Draw, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting committee draws", zap.Int64("committee_id", committeeID))

	if _, sErr := s.getCommittee(ctx, committeeID); sErr != nil {
		return nil, sErr
	}

	draws, err := s.draws.ListByCommittee(ctx, committeeID)
	if err != nil {
		l.Error("failed to list draws", zap.Int64("committee_id", committeeID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list draws")
	}

	res := make([]*model.Draw, 0, len(draws))
	for _, d := range draws {
		res = append(res, drawFromRepo(d))
	}
	return res, nil
}

func (s *CommitteeService) getCommittee(ctx context.Context, committeeID int64) (*repository.Committee, *Error) {
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

func (s *CommitteeService) WithCommitteeRepo(r repository.CommitteeRepository) *CommitteeService {
	s.committees = r
	return s
}

func (s *CommitteeService) WithMemberRepo(r repository.MemberRepository) *CommitteeService {
	s.members = r
	return s
}

func (s *CommitteeService) WithDrawRepo(r repository.DrawRepository) *CommitteeService {
	s.draws = r
	return s
}

func (s *CommitteeService) WithUserWiseDrawRepo(r repository.UserWiseDrawRepository) *CommitteeService {
	s.userWiseDraws = r
	return s
}

func (s *CommitteeService) WithCache(c CommitteeCache) *CommitteeService {
	if c != nil {
		s.cache = c
	}
	return s
}
