package db

import (
	"fmt"
	"testing"

	"foodgram/internal/logger"
	"foodgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), gormLogger.Silent)
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func countCreates(t *testing.T, conn *gorm.DB) *int {
	t.Helper()
	n := new(int)
	require.NoError(t, conn.Callback().Create().Before("gorm:create").Register("test:count_creates", func(*gorm.DB) { *n++ }))
	return n
}

func TestSeedTags_OnlyIntoEmptyTable(t *testing.T) {
	conn := openMemory(t)
	require.NoError(t, Migrate(conn))

	seedTags(conn, logger.Nop())
	var count int64
	require.NoError(t, conn.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	creates := countCreates(t, conn)
	seedTags(conn, logger.Nop())
	assert.Zero(t, *creates)
}

func TestSeedTags_GivesUpWhenCountFails(t *testing.T) {
	// No migration: counting tags fails on the missing table.
	conn := openMemory(t)
	creates := countCreates(t, conn)

	seedTags(conn, logger.Nop())
	assert.Zero(t, *creates)
}
