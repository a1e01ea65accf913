package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/oauthlink/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}
	fk := &pgconn.PgError{Code: "23503"}
	serial := &pgconn.PgError{Code: "40001"}
	wrapped := fmt.Errorf("insert account: %w", dup)

	tests := []struct {
		name       string
		err        error
		duplicate  bool
		foreign    bool
		serialize  bool
		notFound   bool
		constraint string
	}{
		{name: "nil"},
		{name: "plain error", err: errors.New("boom")},
		{name: "duplicate", err: dup, duplicate: true, constraint: "accounts_email_key"},
		{name: "wrapped duplicate", err: wrapped, duplicate: true, constraint: "accounts_email_key"},
		{name: "foreign key", err: fk, foreign: true},
		{name: "serialization", err: serial, serialize: true},
		{name: "no rows", err: fmt.Errorf("select: %w", pgx.ErrNoRows), notFound: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.duplicate, pg.IsDuplicateKeyError(tt.err))
			assert.Equal(t, tt.foreign, pg.IsForeignKeyViolationError(tt.err))
			assert.Equal(t, tt.serialize, pg.IsSerializationFailure(tt.err))
			assert.Equal(t, tt.notFound, pg.IsNotFoundError(tt.err))
			assert.Equal(t, tt.constraint, pg.ConstraintName(tt.err))
		})
	}
}
