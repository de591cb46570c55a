package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/yakoovad/committee-engine/internal/auth"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/repository"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultMemberPassword = "admin123"
	defaultEmailDomain    = "committee.local"
)

type EnrollmentService struct {
	tx    db.Transactor
	cache CommitteeCache
	clock Clock
	hash  func(string) (string, error)

	users      repository.UserRepository
	committees repository.CommitteeRepository
	members    repository.MemberRepository
	draws      repository.DrawRepository
}

func NewEnrollmentService(tx db.Transactor) *EnrollmentService {
	return &EnrollmentService{
		tx:    tx,
		cache: noopCache{},
		clock: SystemClock,
		hash:  auth.HashPassword,
	}
}

// AddMember enrolls the user with the given phone number, registering them first if needed.
// The member that fills the committee generates the draw schedule and activates it.
func (s *EnrollmentService) AddMember(ctx context.Context, caller model.Principal, req *model.AddMember) (*model.User, *Error) {
	l := logger.FromContext(ctx).With(
		zap.Int64("committee_id", req.CommitteeID),
		zap.String("phone_no", req.PhoneNo),
	)
	l.Info("adding committee member", zap.Int64("admin_id", caller.ID))

	if !caller.IsAdmin() {
		l.Warn("member enrollment by non admin", zap.Int64("user_id", caller.ID))
		return nil, errAdminOnly()
	}

	var (
		user        *repository.User
		invalidated []int64
	)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c, err := s.committees.GetForUpdate(txCtx, req.CommitteeID)
		if errors.Is(err, repository.ErrNotFound) {
			l.Warn("committee not found")
			return NewError(ErrorCodeNotFound, "committee not found")
		}
		if err != nil {
			l.Error("failed to lock committee", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get committee")
		}
		if c.CreatedBy != caller.ID {
			l.Warn("member enrollment by non owner", zap.Int64("admin_id", caller.ID))
			return NewError(ErrorCodeNotFound, "committee not found")
		}

		user, err = s.findOrRegister(txCtx, caller, req)
		if err != nil {
			return err
		}

		exists, err := s.members.Exists(txCtx, c.ID, user.ID)
		if err != nil {
			l.Error("failed to check membership", zap.Int64("user_id", user.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check membership")
		}
		if exists {
			l.Warn("user already a member", zap.Int64("user_id", user.ID))
			return NewError(ErrorCodeAlreadyMember, "user already added to committee member")
		}

		count, err := s.members.Count(txCtx, c.ID)
		if err != nil {
			l.Error("failed to count members", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to count members")
		}
		if count >= c.MaxMembers {
			l.Warn("committee is full", zap.Int("members", count), zap.Int("max_members", c.MaxMembers))
			return NewError(ErrorCodeCapacityExceeded, "max members reached for this committee")
		}

		err = s.members.Create(txCtx, &repository.CommitteeMember{CommitteeID: c.ID, UserID: user.ID})
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("user already a member", zap.Int64("user_id", user.ID))
			return NewError(ErrorCodeAlreadyMember, "user already added to committee member")
		}
		if err != nil {
			l.Error("failed to create member", zap.Int64("user_id", user.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add member")
		}

		count, err = s.members.Count(txCtx, c.ID)
		if err != nil {
			l.Error("failed to count members", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to count members")
		}
		if count > c.MaxMembers {
			l.Error("member count above max after insert", zap.Int("members", count), zap.Int("max_members", c.MaxMembers))
			return NewError(ErrorCodeCapacityExceeded, "max members reached for this committee")
		}

		invalidated = []int64{user.ID}
		if count < c.MaxMembers {
			return nil
		}

		memberIDs, sErr := s.activate(txCtx, c)
		if sErr != nil {
			return sErr
		}
		invalidated = append(memberIDs, c.CreatedBy)
		return nil
	})
	if res := asServiceError(err); res != nil {
		return nil, res
	}

	invalidate(ctx, s.cache, invalidated)

	l.Debug("committee member added", zap.Int64("user_id", user.ID))

	u := userFromRepo(user)
	return &u, nil
}

func (s *EnrollmentService) findOrRegister(ctx context.Context, caller model.Principal, req *model.AddMember) (*repository.User, error) {
	l := logger.FromContext(ctx).With(zap.String("phone_no", req.PhoneNo))

	user, err := s.users.GetByPhone(ctx, req.PhoneNo)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		l.Error("failed to find user by phone", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to find user")
	}

	password := req.Password
	if password == "" {
		password = defaultMemberPassword
	}
	hash, err := s.hash(password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register user")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.PhoneNo
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = req.PhoneNo + "@" + defaultEmailDomain
	}

	createdBy := caller.ID
	user = &repository.User{
		Name:      name,
		PhoneNo:   req.PhoneNo,
		Email:     email,
		Password:  hash,
		Role:      model.RoleUser,
		CreatedBy: &createdBy,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("user with this email or phone already exists", zap.String("email", email))
		return nil, NewError(ErrorCodeInvalidBody, "user with this email or phone already exists")
	}
	if err != nil {
		l.Error("failed to create user", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register user")
	}

	l.Info("registered new user", zap.Int64("user_id", user.ID))
	return user, nil
}

// activate generates the draw schedule of a full committee and moves it to ACTIVE.
// It returns the member ids whose committee lists changed.
func (s *EnrollmentService) activate(ctx context.Context, c *repository.Committee) ([]int64, *Error) {
	l := logger.FromContext(ctx).With(zap.Int64("committee_id", c.ID))

	existing, err := s.draws.Count(ctx, c.ID)
	if err != nil {
		l.Error("failed to count draws", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to count draws")
	}
	if existing > 0 {
		l.Error("committee already has draws", zap.Int("draws", existing))
		return nil, NewError(ErrorCodeCapacityExceeded, "committee draws already generated")
	}

	if err = s.draws.CreateBatch(ctx, buildDrawSchedule(c, s.clock.Now())); err != nil {
		l.Error("failed to create draws", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create draws")
	}

	err = s.committees.UpdateStatus(ctx, c.ID, model.CommitteeStatusInactive, model.CommitteeStatusActive)
	if errors.Is(err, repository.ErrConflict) {
		l.Error("committee is not inactive", zap.String("status", string(c.Status)))
		return nil, NewError(ErrorCodeCapacityExceeded, "committee is already active")
	}
	if err != nil {
		l.Error("failed to activate committee", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to activate committee")
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

	l.Info("committee activated", zap.Int("draws", c.NoOfMonths))
	return ids, nil
}

func (s *EnrollmentService) WithUserRepo(r repository.UserRepository) *EnrollmentService {
	s.users = r
	return s
}

func (s *EnrollmentService) WithCommitteeRepo(r repository.CommitteeRepository) *EnrollmentService {
	s.committees = r
	return s
}

func (s *EnrollmentService) WithMemberRepo(r repository.MemberRepository) *EnrollmentService {
	s.members = r
	return s
}

func (s *EnrollmentService) WithDrawRepo(r repository.DrawRepository) *EnrollmentService {
	s.draws = r
	return s
}

func (s *EnrollmentService) WithCache(c CommitteeCache) *EnrollmentService {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *EnrollmentService) WithClock(c Clock) *EnrollmentService {
	s.clock = c
	return s
}

func (s *EnrollmentService) WithPasswordHasher(hash func(string) (string, error)) *EnrollmentService {
	s.hash = hash
	return s
}
