// Package sqlstore holds the SQL shared by the SQLite and PostgreSQL
// backends. Queries are written with "?" placeholders and rebound for
// PostgreSQL.
package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(q string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(q), args...)
}

func (s *Store) query(q string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(q), args...)
}

func (s *Store) queryRow(q string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(q), args...)
}

func formatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(constants.DateFormat, s)
}
