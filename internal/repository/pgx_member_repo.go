package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/committee-engine/internal/db"
)

type CommitteeMember struct {
	ID          int64      `db:"id"`
	CommitteeID int64      `db:"committee_id"`
	UserID      int64      `db:"user_id"`
	CreatedAt   *time.Time `db:"created_at"`
}

// MemberWithUser is a membership row joined with the member's profile.
type MemberWithUser struct {
	CommitteeMember
	User User
}

type MemberRepository interface {
	// Create inserts the membership, ErrAlreadyExists if the user already belongs to the committee.
	Create(ctx context.Context, m *CommitteeMember) error
	Exists(ctx context.Context, committeeID, userID int64) (bool, error)
	Count(ctx context.Context, committeeID int64) (int, error)
	ListByCommittee(ctx context.Context, committeeID int64) ([]*CommitteeMember, error)
	ListWithUsers(ctx context.Context, committeeID int64) ([]*MemberWithUser, error)
}

type pgxMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgxMemberRepository{pool: pool}
}

func (p *pgxMemberRepository) Create(ctx context.Context, m *CommitteeMember) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("committee_member", "committee_id", "user_id"),
		im.Values(psql.Arg(m.CommitteeID), psql.Arg(m.UserID)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return translate(e.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.CreatedAt))
}

func (p *pgxMemberRepository) Exists(ctx context.Context, committeeID, userID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From("committee_member"),
		sm.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var n int
	if err = e.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *pgxMemberRepository) Count(ctx context.Context, committeeID int64) (int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From("committee_member"),
		sm.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err = e.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *pgxMemberRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*CommitteeMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "committee_id", "user_id", "created_at"),
		sm.From("committee_member"),
		sm.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*CommitteeMember, error) {
		m := &CommitteeMember{}
		if err := row.Scan(&m.ID, &m.CommitteeID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		return m, nil
	})
}

func (p *pgxMemberRepository) ListWithUsers(ctx context.Context, committeeID int64) ([]*MemberWithUser, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(
			"committee_member.id",
			"committee_member.committee_id",
			"committee_member.user_id",
			"committee_member.created_at",
			"users.name",
			"users.phone_no",
			"users.email",
			"users.role",
		),
		sm.From("committee_member"),
		sm.InnerJoin("users").On(psql.Quote("users", "id").EQ(psql.Quote("committee_member", "user_id"))),
		sm.Where(psql.Quote("committee_member", "committee_id").EQ(psql.Arg(committeeID))),
		sm.OrderBy(psql.Quote("committee_member", "user_id")).Asc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*MemberWithUser, error) {
		m := &MemberWithUser{}
		if err := row.Scan(
			&m.ID,
			&m.CommitteeID,
			&m.UserID,
			&m.CreatedAt,
			&m.User.Name,
			&m.User.PhoneNo,
			&m.User.Email,
			&m.User.Role,
		); err != nil {
			return nil, err
		}
		m.User.ID = m.UserID
		return m, nil
	})
}
