package neon

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// session is one Postgres connection to one branch.
type session interface {
	Query(ctx context.Context, query string, args ...any) ([][]any, error)
	Exec(ctx context.Context, script string) error
	CopyFrom(ctx context.Context, r io.Reader, copySQL string) error
	Close(ctx context.Context) error
}

type dialFunc func(ctx context.Context, uri string) (session, error)

type pgxSession struct {
	conn *pgx.Conn
}

func dialPgx(ctx context.Context, uri string) (session, error) {
	conn, err := pgx.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &pgxSession{conn: conn}, nil
}

func (s *pgxSession) Query(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := [][]any{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = convert(v)
		}
		result = append(result, vals)
	}
	return result, rows.Err()
}

// Exec runs script over the simple protocol, so it may hold several
// statements.
func (s *pgxSession) Exec(ctx context.Context, script string) error {
	_, err := s.conn.Exec(ctx, script)
	return err
}

func (s *pgxSession) CopyFrom(ctx context.Context, r io.Reader, copySQL string) error {
	_, err := s.conn.PgConn().CopyFrom(ctx, r, copySQL)
	return err
}

func (s *pgxSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// convert maps pgx values without a plain Go counterpart onto the types the
// generator produces.
func convert(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return v
	}
}
