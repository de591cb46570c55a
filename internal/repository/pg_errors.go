package repository

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Wrap(ErrAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return errors.Wrap(ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// translateClaim reports which completion index rejected a claim, falling back to translate.
func translateClaim(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case claimedDrawIndex:
			return ErrDrawClaimed
		case claimedUserIndex:
			return ErrUserClaimed
		}
	}
	return translate(err)
}
