package repository

import (
	"testing"

	"gorm.io/gorm"

	"github.com/tphakala/orderlens/internal/testutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}
