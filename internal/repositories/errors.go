package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a keyed lookup, update or delete matches no row.
var ErrNotFound = errors.New("record not found")

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnique
	KindForeignKey
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// StoreError is a constraint or statement failure reported by PostgreSQL.
// Code is the SQLSTATE, Message the server's own text.
type StoreError struct {
	Op         string
	Kind       ErrorKind
	Code       string
	Constraint string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

// wrapErr tags err with op and lifts *pq.Error into a StoreError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se := &StoreError{
			Op:         op,
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Message:    pqErr.Message,
			Err:        err,
		}
		switch se.Code {
		case codeUniqueViolation:
			se.Kind = KindUnique
		case codeForeignKeyViolation:
			se.Kind = KindForeignKey
		}
		return se
	}
	return fmt.Errorf("%s: %w", op, err)
}

func IsUniqueViolation(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindUnique
}

func IsForeignKeyViolation(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindForeignKey
}

// Message returns the store's text for err when it has one.
func Message(err error) string {
	var se *StoreError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func expectOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
