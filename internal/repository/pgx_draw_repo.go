package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/committee-engine/internal/db"
)

type Draw struct {
	ID          int64           `db:"id"`
	CommitteeID int64           `db:"committee_id"`
	Amount      decimal.Decimal `db:"committee_draw_amount"`
	PaidAmount  decimal.Decimal `db:"committee_draw_paid_amount"`
	MinAmount   decimal.Decimal `db:"committee_draw_min_amount"`
	Date        time.Time       `db:"committee_draw_date"`
}

var drawColumns = []any{
	"id",
	"committee_id",
	"committee_draw_amount",
	"committee_draw_paid_amount",
	"committee_draw_min_amount",
	"committee_draw_date",
}

func scanDraw(row pgx.Row) (*Draw, error) {
	d := &Draw{}
	err := row.Scan(&d.ID, &d.CommitteeID, &d.Amount, &d.PaidAmount, &d.MinAmount, &d.Date)
	return d, err
}

type DrawRepository interface {
	// CreateBatch inserts the whole schedule with one statement.
	CreateBatch(ctx context.Context, draws []*Draw) error
	Get(ctx context.Context, drawID int64) (*Draw, error)
	// GetForUpdate locks the draw row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, drawID int64) (*Draw, error)
	ListByCommittee(ctx context.Context, committeeID int64) ([]*Draw, error)
	Count(ctx context.Context, committeeID int64) (int, error)
	// SetAmount stores the payout amount only while it is still unset, ErrConflict otherwise.
	SetAmount(ctx context.Context, drawID int64, amount decimal.Decimal) (*Draw, error)
}

type pgxDrawRepository struct {
	pool *pgxpool.Pool
}

func NewPgxDrawRepository(pool *pgxpool.Pool) DrawRepository {
	return &pgxDrawRepository{pool: pool}
}

func (p *pgxDrawRepository) CreateBatch(ctx context.Context, draws []*Draw) error {
	if len(draws) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("committee_draw",
			"committee_id",
			"committee_draw_amount",
			"committee_draw_paid_amount",
			"committee_draw_min_amount",
			"committee_draw_date",
		),
	)

	for _, d := range draws {
		q.Apply(im.Values(
			psql.Arg(d.CommitteeID),
			psql.Arg(d.Amount),
			psql.Arg(d.PaidAmount),
			psql.Arg(d.MinAmount),
			psql.Arg(d.Date),
		))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return translate(err)
	}
	return nil
}

func (p *pgxDrawRepository) Get(ctx context.Context, drawID int64) (*Draw, error) {
	return p.get(ctx, drawID, false)
}

func (p *pgxDrawRepository) GetForUpdate(ctx context.Context, drawID int64) (*Draw, error) {
	return p.get(ctx, drawID, true)
}

func (p *pgxDrawRepository) get(ctx context.Context, drawID int64, lock bool) (*Draw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(drawColumns...),
		sm.From("committee_draw"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(drawID))),
	)
	if lock {
		q.Apply(sm.ForUpdate("committee_draw"))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	d, err := scanDraw(e.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

func (p *pgxDrawRepository) ListByCommittee(ctx context.Context, committeeID int64) ([]*Draw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(drawColumns...),
		sm.From("committee_draw"),
		sm.Where(psql.Quote("committee_id").EQ(psql.Arg(committeeID))),
		sm.OrderBy(psql.Quote("committee_draw_date")).Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Draw, error) {
		return scanDraw(row)
	})
}

func (p *pgxDrawRepository) Count(ctx context.Context, committeeID int64) (int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From("committee_draw"),
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

func (p *pgxDrawRepository) SetAmount(ctx context.Context, drawID int64, amount decimal.Decimal) (*Draw, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("committee_draw"),
		um.SetCol("committee_draw_amount").ToArg(amount),
		um.Where(
			psql.Quote("id").EQ(psql.Arg(drawID)).
				And(psql.Quote("committee_draw_amount").EQ(psql.Arg(0))),
		),
		um.Returning(drawColumns...),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	d, err := scanDraw(e.QueryRow(ctx, sql, args...))
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return d, nil
}
