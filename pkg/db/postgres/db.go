package postgres

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func NewDBConn(opts *PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", GetConnString(opts))
	if err != nil {
		return nil, err
	}
	return db, nil
}
