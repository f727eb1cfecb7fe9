package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"settlementapi/src/audit"
	"settlementapi/src/database"
	"settlementapi/src/model"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func auditEntry(action string, entityID uint) *model.AuditLog {
	houseID := uint(1)
	userID := uint(3)
	return &model.AuditLog{
		ExchangeHouseID: &houseID,
		UserID:          &userID,
		Action:          action,
		EntityType:      "order",
		EntityID:        entityID,
		NewValues:       `{"status":"pending"}`,
	}
}

func TestAuditRepositoryAppendBuildsVerifiableChain(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAuditRepositoryWithDB(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, auditEntry("order.created", 1)))
	require.NoError(t, repo.Append(ctx, auditEntry("order.completed", 1)))
	require.NoError(t, repo.Append(ctx, auditEntry("order.created", 2)))

	entries, err := repo.ListAfter(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// the first entry anchors on the genesis hash, each next one on its
	// predecessor, and every stored hash recomputes
	assert.Equal(t, audit.GenesisHash, entries[0].PreviousHash)
	assert.Equal(t, entries[0].CurrentHash, entries[1].PreviousHash)
	assert.Equal(t, entries[1].CurrentHash, entries[2].PreviousHash)
	require.NoError(t, audit.VerifyChain(entries))

	var head model.AuditChainHead
	require.NoError(t, db.First(&head, 1).Error)
	assert.Equal(t, entries[2].ID, head.LastEntryID)
	assert.Equal(t, entries[2].CurrentHash, head.LastHash)
}

func TestAuditRepositoryListAfterPaginates(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAuditRepositoryWithDB(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, auditEntry("order.created", uint(i+1))))
	}

	first, err := repo.ListAfter(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := repo.ListAfter(ctx, first[1].ID, 100)
	require.NoError(t, err)
	require.Len(t, rest, 3)

	running, err := audit.VerifyChainFrom(first, audit.GenesisHash)
	require.NoError(t, err)
	_, err = audit.VerifyChainFrom(rest, running)
	require.NoError(t, err)
}

func TestAuditRepositoryListByEntity(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAuditRepositoryWithDB(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, auditEntry("order.created", 1)))
	require.NoError(t, repo.Append(ctx, auditEntry("order.created", 2)))
	require.NoError(t, repo.Append(ctx, auditEntry("order.completed", 1)))

	trail, err := repo.ListByEntity(ctx, "order", 1)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "order.created", trail[0].Action)
	assert.Equal(t, "order.completed", trail[1].Action)
}

func TestAuditLogRejectsUpdateAndDelete(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAuditRepositoryWithDB(db)
	ctx := context.Background()

	entry := auditEntry("order.created", 1)
	require.NoError(t, repo.Append(ctx, entry))

	err := db.Model(entry).Update("new_values", `{"status":"completed"}`).Error
	require.ErrorIs(t, err, model.ErrStorageIntegrityViolation)

	err = db.Delete(entry).Error
	require.ErrorIs(t, err, model.ErrStorageIntegrityViolation)

	// the stored entry is untouched
	var stored model.AuditLog
	require.NoError(t, db.First(&stored, entry.ID).Error)
	assert.Equal(t, `{"status":"pending"}`, stored.NewValues)
}
