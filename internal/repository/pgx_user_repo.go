package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/committee-engine/internal/db"
	"github.com/yakoovad/committee-engine/internal/model"
)

type User struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	PhoneNo   string     `db:"phone_no"`
	Email     string     `db:"email"`
	Password  string     `db:"password"`
	Role      model.Role `db:"role"`
	CreatedBy *int64     `db:"created_by"`
	CreatedAt *time.Time `db:"created_at"`
}

var userColumns = []any{"id", "name", "phone_no", "email", "password", "role", "created_by", "created_at"}

type UserRepository interface {
	Get(ctx context.Context, userID int64) (*User, error)
	GetByPhone(ctx context.Context, phoneNo string) (*User, error)
	// Create inserts the user and fills ID and CreatedAt.
	Create(ctx context.Context, user *User) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func (p *pgxUserRepository) Get(ctx context.Context, userID int64) (*User, error) {
	return p.getBy(ctx, "id", userID)
}

func (p *pgxUserRepository) GetByPhone(ctx context.Context, phoneNo string) (*User, error) {
	return p.getBy(ctx, "phone_no", phoneNo)
}

func (p *pgxUserRepository) getBy(ctx context.Context, column string, value any) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(userColumns...),
		sm.From("users"),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&u.ID,
		&u.Name,
		&u.PhoneNo,
		&u.Email,
		&u.Password,
		&u.Role,
		&u.CreatedBy,
		&u.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (p *pgxUserRepository) Create(ctx context.Context, user *User) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("users", "name", "phone_no", "email", "password", "role", "created_by"),
		im.Values(
			psql.Arg(user.Name),
			psql.Arg(user.PhoneNo),
			psql.Arg(user.Email),
			psql.Arg(user.Password),
			psql.Arg(user.Role),
			psql.Arg(user.CreatedBy),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return translate(e.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt))
}
