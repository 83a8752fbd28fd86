// Package repo is the durability boundary: transactions are persisted
// here before any network call is attempted.
package repo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/database"
)

type Gorm struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Open opens (or creates) the on-device database and runs migrations.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AppendTransaction inserts a new transaction. Inserts only; parse
// fields never change after this.
func (g *Gorm) AppendTransaction(ctx context.Context, tx *database.Transaction) error {
	if tx.AmountMinorUnits < 0 {
		return errors.Newf("negative amount %d for transaction %s", tx.AmountMinorUnits, tx.ID)
	}

	return errors.Wrap(g.db.WithContext(ctx).Create(tx).Error, "failed to append transaction")
}

func (g *Gorm) MarkSynced(ctx context.Context, id string, remoteID string) error {
	return g.updateSyncState(ctx, id, map[string]interface{}{
		"sync_state": database.SyncStateSynced,
		"remote_id":  remoteID,
		"sync_error": nil,
	})
}

func (g *Gorm) MarkSyncFailed(ctx context.Context, id string, reason string) error {
	return g.updateSyncState(ctx, id, map[string]interface{}{
		"sync_state": database.SyncStateFailed,
		"sync_error": reason,
	})
}

func (g *Gorm) MarkSyncing(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return errors.Wrap(g.db.WithContext(ctx).
		Model(&database.Transaction{}).
		Where("id IN ?", ids).
		Update("sync_state", database.SyncStateSyncing).Error,
		"failed to mark transactions syncing")
}

// ListPendingTransactions returns everything not yet synced, oldest
// first. SYNCING records are included so interrupted uploads resume
// after a restart; FAILED is retry-eligible, not terminal.
func (g *Gorm) ListPendingTransactions(ctx context.Context) ([]*database.Transaction, error) {
	var txs []*database.Transaction

	err := g.db.WithContext(ctx).
		Where("sync_state IN ?", []database.SyncState{
			database.SyncStatePending,
			database.SyncStateSyncing,
			database.SyncStateFailed,
		}).
		Order("created_at_epoch_ms asc").
		Find(&txs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending transactions")
	}

	return txs, nil
}

func (g *Gorm) PendingTransactionCount(ctx context.Context) (int64, error) {
	var count int64

	err := g.db.WithContext(ctx).
		Model(&database.Transaction{}).
		Where("sync_state <> ?", database.SyncStateSynced).
		Count(&count).Error

	return count, errors.Wrap(err, "failed to count pending transactions")
}

func (g *Gorm) GetTransaction(ctx context.Context, id string) (*database.Transaction, error) {
	var tx database.Transaction

	err := g.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &tx, nil
}

func (g *Gorm) updateSyncState(
	ctx context.Context,
	id string,
	values map[string]interface{},
) error {
	result := g.db.WithContext(ctx).
		Model(&database.Transaction{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update sync state")
	}

	if result.RowsAffected == 0 {
		return common.ErrNotFound
	}

	return nil
}
