package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, userID int64) (*repository.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phoneNo string) (*repository.User, error) {
	args := m.Called(ctx, phoneNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *repository.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockCommitteeRepository struct {
	mock.Mock
}

func (m *MockCommitteeRepository) Create(ctx context.Context, c *repository.Committee) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCommitteeRepository) Get(ctx context.Context, committeeID int64) (*repository.Committee, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Committee), args.Error(1)
}

func (m *MockCommitteeRepository) GetForUpdate(ctx context.Context, committeeID int64) (*repository.Committee, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Committee), args.Error(1)
}

func (m *MockCommitteeRepository) ListByCreator(ctx context.Context, userID int64) ([]*repository.Committee, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Committee), args.Error(1)
}

func (m *MockCommitteeRepository) ListByMember(ctx context.Context, userID int64) ([]*repository.Committee, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Committee), args.Error(1)
}

func (m *MockCommitteeRepository) UpdateStatus(ctx context.Context, committeeID int64, from, to model.CommitteeStatus) error {
	args := m.Called(ctx, committeeID, from, to)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *repository.CommitteeMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Exists(ctx context.Context, committeeID, userID int64) (bool, error) {
	args := m.Called(ctx, committeeID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Count(ctx context.Context, committeeID int64) (int, error) {
	args := m.Called(ctx, committeeID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*repository.CommitteeMember, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.CommitteeMember), args.Error(1)
}

func (m *MockMemberRepository) ListWithUsers(ctx context.Context, committeeID int64) ([]*repository.MemberWithUser, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.MemberWithUser), args.Error(1)
}

type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) CreateBatch(ctx context.Context, draws []*repository.Draw) error {
	args := m.Called(ctx, draws)
	return args.Error(0)
}

func (m *MockDrawRepository) Get(ctx context.Context, drawID int64) (*repository.Draw, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetForUpdate(ctx context.Context, drawID int64) (*repository.Draw, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Draw), args.Error(1)
}

func (m *MockDrawRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*repository.Draw, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Draw), args.Error(1)
}

func (m *MockDrawRepository) Count(ctx context.Context, committeeID int64) (int, error) {
	args := m.Called(ctx, committeeID)
	return args.Int(0), args.Error(1)
}

func (m *MockDrawRepository) SetAmount(ctx context.Context, drawID int64, amount decimal.Decimal) (*repository.Draw, error) {
	args := m.Called(ctx, drawID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Draw), args.Error(1)
}

type MockUserWiseDrawRepository struct {
	mock.Mock
}

func (m *MockUserWiseDrawRepository) Upsert(ctx context.Context, r *repository.UserWiseDraw) (*repository.UserWiseDraw, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) Get(ctx context.Context, committeeID, drawID, userID int64) (*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, drawID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) FindCompletedByUser(ctx context.Context, committeeID, userID int64) (*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) FindCompletedByDraw(ctx context.Context, committeeID, drawID int64) (*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) ListByDraw(ctx context.Context, committeeID, drawID int64) ([]*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) ListByUser(ctx context.Context, committeeID, userID int64) ([]*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.UserWiseDraw), args.Error(1)
}

func (m *MockUserWiseDrawRepository) CountCompleted(ctx context.Context, committeeID int64) (int, error) {
	args := m.Called(ctx, committeeID)
	return args.Int(0), args.Error(1)
}

func (m *MockUserWiseDrawRepository) MarkCompleted(ctx context.Context, committeeID, drawID, userID int64) (*repository.UserWiseDraw, error) {
	args := m.Called(ctx, committeeID, drawID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserWiseDraw), args.Error(1)
}

type MockCommitteeCache struct {
	mock.Mock
}

func (m *MockCommitteeCache) GetCommittees(ctx context.Context, p model.Principal) ([]*model.Committee, bool, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*model.Committee), args.Bool(1), args.Error(2)
}

func (m *MockCommitteeCache) SetCommittees(ctx context.Context, p model.Principal, committees []*model.Committee) error {
	args := m.Called(ctx, p, committees)
	return args.Error(0)
}

func (m *MockCommitteeCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}
