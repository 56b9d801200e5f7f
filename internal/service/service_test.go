package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habitloop/internal/repository"
)

// newTestDB opens an isolated in-memory database through the same
// migration path production uses. One connection keeps the shared-cache
// database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// monday is 2025-01-06, 10:00 UTC.
func monday() time.Time {
	return time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)
}

func onDay(base time.Time, daysLater int) time.Time {
	return base.AddDate(0, 0, daysLater)
}
