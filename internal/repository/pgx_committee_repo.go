package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/model"
)

type Committee struct {
	ID               int64                 `db:"id"`
	Name             string                `db:"committee_name"`
	Amount           decimal.Decimal       `db:"committee_amount"`
	MaxMembers       int                   `db:"commission_max_member"`
	NoOfMonths       int                   `db:"no_of_months"`
	Status           model.CommitteeStatus `db:"committee_status"`
	Type             model.CommitteeType   `db:"committee_type"`
	CreatedBy        int64                 `db:"created_by"`
	StartDate        *time.Time            `db:"start_committee_date"`
	EndDate          *time.Time            `db:"end_committee_date"`
	FineStartDate    *time.Time            `db:"fine_start_date"`
	FineAmount       decimal.Decimal       `db:"fine_amount"`
	ExtraDaysForFine int                   `db:"extra_days_for_fine"`
	LotteryAmount    decimal.Decimal       `db:"lottery_amount"`
	CreatedAt        *time.Time            `db:"created_at"`
}

var committeeColumns = []any{
	"committee.id",
	"committee.committee_name",
	"committee.committee_amount",
	"committee.commission_max_member",
	"committee.no_of_months",
	"committee.committee_status",
	"committee.committee_type",
	"committee.created_by",
	"committee.start_committee_date",
	"committee.end_committee_date",
	"committee.fine_start_date",
	"committee.fine_amount",
	"committee.extra_days_for_fine",
	"committee.lottery_amount",
	"committee.created_at",
}

func scanCommittee(row pgx.Row) (*Committee, error) {
	c := &Committee{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Amount,
		&c.MaxMembers,
		&c.NoOfMonths,
		&c.Status,
		&c.Type,
		&c.CreatedBy,
		&c.StartDate,
		&c.EndDate,
		&c.FineStartDate,
		&c.FineAmount,
		&c.ExtraDaysForFine,
		&c.LotteryAmount,
		&c.CreatedAt,
	)
	return c, err
}

type CommitteeRepository interface {
	// Create inserts the committee and fills ID and CreatedAt.
	Create(ctx context.Context, c *Committee) error
	Get(ctx context.Context, committeeID int64) (*Committee, error)
	// GetForUpdate locks the committee row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, committeeID int64) (*Committee, error)
	ListByCreator(ctx context.Context, userID int64) ([]*Committee, error)
	ListByMember(ctx context.Context, userID int64) ([]*Committee, error)
	// UpdateStatus moves the committee from one status to another, ErrConflict if it is not in from.
	UpdateStatus(ctx context.Context, committeeID int64, from, to model.CommitteeStatus) error
}

type pgxCommitteeRepository struct {
	pool *pgxpool.Pool
}

func NewPgxCommitteeRepository(pool *pgxpool.Pool) CommitteeRepository {
	return &pgxCommitteeRepository{pool: pool}
}

func (p *pgxCommitteeRepository) Create(ctx context.Context, c *Committee) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("committee",
			"committee_name",
			"committee_amount",
			"commission_max_member",
			"no_of_months",
			"committee_status",
			"committee_type",
			"created_by",
			"updated_by",
			"start_committee_date",
			"end_committee_date",
			"fine_start_date",
			"fine_amount",
			"extra_days_for_fine",
			"lottery_amount",
		),
		im.Values(
			psql.Arg(c.Name),
			psql.Arg(c.Amount),
			psql.Arg(c.MaxMembers),
			psql.Arg(c.NoOfMonths),
			psql.Arg(c.Status),
			psql.Arg(c.Type),
			psql.Arg(c.CreatedBy),
			psql.Arg(c.CreatedBy),
			psql.Arg(c.StartDate),
			psql.Arg(c.EndDate),
			psql.Arg(c.FineStartDate),
			psql.Arg(c.FineAmount),
			psql.Arg(c.ExtraDaysForFine),
			psql.Arg(c.LotteryAmount),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return translate(e.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt))
}

func (p *pgxCommitteeRepository) Get(ctx context.Context, committeeID int64) (*Committee, error) {
	return p.get(ctx, committeeID, false)
}

func (p *pgxCommitteeRepository) GetForUpdate(ctx context.Context, committeeID int64) (*Committee, error) {
	return p.get(ctx, committeeID, true)
}

func (p *pgxCommitteeRepository) get(ctx context.Context, committeeID int64, lock bool) (*Committee, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(committeeColumns...),
		sm.From("committee"),
		sm.Where(psql.Quote("committee", "id").EQ(psql.Arg(committeeID))),
	)
	if lock {
		q.Apply(sm.ForUpdate("committee"))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanCommittee(e.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (p *pgxCommitteeRepository) ListByCreator(ctx context.Context, userID int64) ([]*Committee, error) {
	q := psql.Select(
		sm.Columns(committeeColumns...),
		sm.From("committee"),
		sm.Where(psql.Quote("committee", "created_by").EQ(psql.Arg(userID))),
		sm.OrderBy(psql.Quote("committee", "id")).Asc(),
	)
	return p.list(ctx, q.Build)
}

func (p *pgxCommitteeRepository) ListByMember(ctx context.Context, userID int64) ([]*Committee, error) {
	q := psql.Select(
		sm.Columns(committeeColumns...),
		sm.From("committee_member"),
		sm.InnerJoin("committee").On(psql.Quote("committee", "id").EQ(psql.Quote("committee_member", "committee_id"))),
		sm.Where(psql.Quote("committee_member", "user_id").EQ(psql.Arg(userID))),
		sm.OrderBy(psql.Quote("committee", "id")).Asc(),
	)
	return p.list(ctx, q.Build)
}

func (p *pgxCommitteeRepository) list(ctx context.Context, build func(context.Context) (string, []any, error)) ([]*Committee, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sql, args, err := build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Committee, error) {
		return scanCommittee(row)
	})
}

func (p *pgxCommitteeRepository) UpdateStatus(ctx context.Context, committeeID int64, from, to model.CommitteeStatus) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("committee"),
		um.SetCol("committee_status").ToArg(to),
		um.SetCol("updated_at").ToArg(time.Now()),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(committeeID)).
				And(psql.Quote("committee_status").EQ(psql.Arg(from))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
