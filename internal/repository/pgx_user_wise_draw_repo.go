package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/committee-engine/internal/db"
)

const (
	claimedDrawIndex = "user_wise_draw_claimed_draw_idx"
	claimedUserIndex = "user_wise_draw_claimed_user_idx"
)

var (
	// ErrDrawClaimed means another member already completed the draw.
	ErrDrawClaimed = errors.New("draw already claimed")
	// ErrUserClaimed means the member already completed a draw of the committee.
	ErrUserClaimed = errors.New("user already claimed a draw")
)

type UserWiseDraw struct {
	ID                 int64           `db:"id"`
	CommitteeID        int64           `db:"committee_id"`
	DrawID             int64           `db:"draw_id"`
	UserID             int64           `db:"user_id"`
	UserDrawAmountPaid decimal.Decimal `db:"user_draw_amount_paid"`
	FineAmountPaid     decimal.Decimal `db:"fine_amount_paid"`
	IsDrawCompleted    bool            `db:"is_draw_completed"`
	CreatedAt          *time.Time      `db:"created_at"`
	UpdatedAt          *time.Time      `db:"updated_at"`

	// User is filled by reads that join users.
	User *User `db:"-"`
}

var userWiseDrawColumns = []any{
	"user_wise_draw.id",
	"user_wise_draw.committee_id",
	"user_wise_draw.draw_id",
	"user_wise_draw.user_id",
	"user_wise_draw.user_draw_amount_paid",
	"user_wise_draw.fine_amount_paid",
	"user_wise_draw.is_draw_completed",
	"user_wise_draw.created_at",
	"user_wise_draw.updated_at",
	"users.name",
	"users.phone_no",
	"users.email",
	"users.role",
}

func scanUserWiseDraw(row pgx.Row) (*UserWiseDraw, error) {
	r := &UserWiseDraw{User: &User{}}
	err := row.Scan(
		&r.ID,
		&r.CommitteeID,
		&r.DrawID,
		&r.UserID,
		&r.UserDrawAmountPaid,
		&r.FineAmountPaid,
		&r.IsDrawCompleted,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.User.Name,
		&r.User.PhoneNo,
		&r.User.Email,
		&r.User.Role,
	)
	r.User.ID = r.UserID
	return r, err
}

type UserWiseDrawRepository interface {
	// Upsert writes principal and fine for (committee, draw, user) and returns the stored row with its user.
	Upsert(ctx context.Context, r *UserWiseDraw) (*UserWiseDraw, error)
	Get(ctx context.Context, committeeID, drawID, userID int64) (*UserWiseDraw, error)
	// FindCompletedByUser returns the row the user has claimed in the committee, ErrNotFound if none.
	FindCompletedByUser(ctx context.Context, committeeID, userID int64) (*UserWiseDraw, error)
	// FindCompletedByDraw returns the row that claimed the draw, ErrNotFound if none.
	FindCompletedByDraw(ctx context.Context, committeeID, drawID int64) (*UserWiseDraw, error)
	ListByDraw(ctx context.Context, committeeID, drawID int64) ([]*UserWiseDraw, error)
	ListByUser(ctx context.Context, committeeID, userID int64) ([]*UserWiseDraw, error)
	ListByCommittee(ctx context.Context, committeeID int64) ([]*UserWiseDraw, error)
	CountCompleted(ctx context.Context, committeeID int64) (int, error)
	// MarkCompleted sets the completion flag. Fails with ErrDrawClaimed or ErrUserClaimed
	// when the claim indexes reject it.
	MarkCompleted(ctx context.Context, committeeID, drawID, userID int64) (*UserWiseDraw, error)
}

type pgxUserWiseDrawRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserWiseDrawRepository(pool *pgxpool.Pool) UserWiseDrawRepository {
	return &pgxUserWiseDrawRepository{pool: pool}
}

func (p *pgxUserWiseDrawRepository) Upsert(ctx context.Context, r *UserWiseDraw) (*UserWiseDraw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	now := time.Now()
	q := psql.Insert(
		im.Into("user_wise_draw",
			"committee_id",
			"draw_id",
			"user_id",
			"user_draw_amount_paid",
			"fine_amount_paid",
			"created_at",
			"updated_at",
		),
		im.Values(
			psql.Arg(r.CommitteeID),
			psql.Arg(r.DrawID),
			psql.Arg(r.UserID),
			psql.Arg(r.UserDrawAmountPaid),
			psql.Arg(r.FineAmountPaid),
			psql.Arg(now),
			psql.Arg(now),
		),
		im.OnConflict(psql.Quote("committee_id"), psql.Quote("draw_id"), psql.Quote("user_id")).DoUpdate(
			im.SetCol("user_draw_amount_paid").ToArg(r.UserDrawAmountPaid),
			im.SetCol("fine_amount_paid").ToArg(r.FineAmountPaid),
			im.SetCol("updated_at").ToArg(now),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return nil, translate(err)
	}

	return p.Get(ctx, r.CommitteeID, r.DrawID, r.UserID)
}

func (p *pgxUserWiseDrawRepository) Get(ctx context.Context, committeeID, drawID, userID int64) (*UserWiseDraw, error) {
	return p.one(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_wise_draw", "draw_id").EQ(psql.Arg(drawID))),
		sm.Where(psql.Quote("user_wise_draw", "user_id").EQ(psql.Arg(userID))),
	)
}

func (p *pgxUserWiseDrawRepository) FindCompletedByUser(ctx context.Context, committeeID, userID int64) (*UserWiseDraw, error) {
	return p.one(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_wise_draw", "user_id").EQ(psql.Arg(userID))),
		sm.Where(psql.Quote("user_wise_draw", "is_draw_completed").EQ(psql.Arg(true))),
	)
}

func (p *pgxUserWiseDrawRepository) FindCompletedByDraw(ctx context.Context, committeeID, drawID int64) (*UserWiseDraw, error) {
	return p.one(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_wise_draw", "draw_id").EQ(psql.Arg(drawID))),
		sm.Where(psql.Quote("user_wise_draw", "is_draw_completed").EQ(psql.Arg(true))),
	)
}

func (p *pgxUserWiseDrawRepository) ListByDraw(ctx context.Context, committeeID, drawID int64) ([]*UserWiseDraw, error) {
	return p.list(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_wise_draw", "draw_id").EQ(psql.Arg(drawID))),
	)
}

func (p *pgxUserWiseDrawRepository) ListByUser(ctx context.Context, committeeID, userID int64) ([]*UserWiseDraw, error) {
	return p.list(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("user_wise_draw", "user_id").EQ(psql.Arg(userID))),
	)
}

func (p *pgxUserWiseDrawRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*UserWiseDraw, error) {
	return p.list(ctx,
		sm.Where(psql.Quote("user_wise_draw", "committee_id").EQ(psql.Arg(committeeID))),
	)
}

func (p *pgxUserWiseDrawRepository) CountCompleted(ctx context.Context, committeeID int64) (int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From("user_wise_draw"),
		sm.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
		sm.Where(psql.Quote("is_draw_completed").EQ(psql.Arg(true))),
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

func (p *pgxUserWiseDrawRepository) MarkCompleted(ctx context.Context, committeeID, drawID, userID int64) (*UserWiseDraw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("user_wise_draw"),
		um.SetCol("is_draw_completed").ToArg(true),
		um.SetCol("updated_at").ToArg(time.Now()),
		um.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
		um.Where(psql.Quote("draw_id").EQ(psql.Arg(drawID))),
		um.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return nil, translateClaim(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return p.Get(ctx, committeeID, drawID, userID)
}

func (p *pgxUserWiseDrawRepository) selectQuery(where ...bob.Mod[*dialect.SelectQuery]) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(userWiseDrawColumns...),
		sm.From("user_wise_draw"),
		sm.InnerJoin("users").On(psql.Quote("users", "id").EQ(psql.Quote("user_wise_draw", "user_id"))),
		sm.OrderBy(psql.Quote("user_wise_draw", "id")).Asc(),
	)
	q.Apply(where...)
	return q
}

func (p *pgxUserWiseDrawRepository) one(ctx context.Context, where ...bob.Mod[*dialect.SelectQuery]) (*UserWiseDraw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := p.selectQuery(where...)
	q.Apply(sm.Limit(1))

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	r, err := scanUserWiseDraw(e.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (p *pgxUserWiseDrawRepository) list(ctx context.Context, where ...bob.Mod[*dialect.SelectQuery]) ([]*UserWiseDraw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sql, args, err := p.selectQuery(where...).Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*UserWiseDraw, error) {
		return scanUserWiseDraw(row)
	})
}
