package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_RunsEveryStatementInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for range migrations {
		mock.ExpectExec(".").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	db := &DB{Pool: mock}
	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsAtFirstFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(".").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(".").WillReturnError(errors.New("permission denied"))

	db := &DB{Pool: mock}
	err = db.Migrate(context.Background())

	assert.ErrorContains(t, err, "migration 2 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_StatusEnumMatchesRegistry(t *testing.T) {
	var enum string
	for _, m := range migrations {
		if strings.Contains(m, "collaboration_status AS ENUM") {
			enum = m
		}
	}
	require.NotEmpty(t, enum)

	for _, s := range workflow.AllStatuses() {
		assert.Contains(t, enum, "'"+string(s)+"'")
	}
}
