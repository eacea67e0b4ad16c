package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	dup := &pq.Error{Code: pq.ErrorCode(ErrDuplicateCode)}
	assert.True(t, IsDuplicateKeyErr(dup))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert inbox: %w", dup)))
	assert.False(t, IsDuplicateKeyErr(&pq.Error{Code: "23503"}))
	assert.False(t, IsDuplicateKeyErr(errors.New("boom")))
	assert.False(t, IsDuplicateKeyErr(nil))
}

func TestConnStrings(t *testing.T) {
	cfg := &PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "saga_sale", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=saga_sale sslmode=disable", GetConnString(cfg))
	assert.Equal(t, "postgres://u:p@db:5432/saga_sale?sslmode=disable", GetURL(cfg))
}

func TestIsDuplicateDatabaseErr(t *testing.T) {
	assert.True(t, IsDuplicateDatabaseErr(&pq.Error{Code: pq.ErrorCode(ErrDuplicateDatabaseCode)}))
	assert.False(t, IsDuplicateDatabaseErr(&pq.Error{Code: pq.ErrorCode(ErrDuplicateCode)}))
	assert.False(t, IsDuplicateDatabaseErr(nil))
}
