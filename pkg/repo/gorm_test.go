package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/repo"
)

func newTestRepo(t *testing.T) *repo.Gorm {
	t.Helper()

	db, err := repo.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	return repo.New(db)
}

func newTx(state database.SyncState) *database.Transaction {
	return &database.Transaction{
		ID:               uuid.NewString(),
		AmountMinorUnits: 5000,
		CurrencyCode:     "GHS",
		Direction:        database.DirectionReceived,
		Provider:         database.ProviderMTN,
		Sender:           "MTN MoMo",
		RawMessage:       "You have received GHS 50.00 from 0244123456",
		ParsedBy:         database.TierRegex,
		Confidence:       0.70,
		CreatedAtEpochMs: 1700000000000,
		SyncState:        state,
	}
}

func TestAppendAndSyncStateTransitions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	tx := newTx(database.SyncStatePending)
	assert.NoError(t, r.AppendTransaction(ctx, tx))

	pending, err := r.ListPendingTransactions(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.NoError(t, r.MarkSyncing(ctx, []string{tx.ID}))

	// SYNCING still shows as pending work: it must resume after a crash.
	pending, err = r.ListPendingTransactions(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, database.SyncStateSyncing, pending[0].SyncState)

	assert.NoError(t, r.MarkSynced(ctx, tx.ID, "remote-42"))

	pending, err = r.ListPendingTransactions(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	stored, err := r.GetTransaction(ctx, tx.ID)
	assert.NoError(t, err)
	assert.Equal(t, database.SyncStateSynced, stored.SyncState)
	assert.Equal(t, "remote-42", *stored.RemoteID)

	// Parse fields survive the state transitions untouched.
	assert.EqualValues(t, 5000, stored.AmountMinorUnits)
	assert.Equal(t, tx.RawMessage, stored.RawMessage)
}

func TestMarkSyncFailedKeepsRecordRetryable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	tx := newTx(database.SyncStatePending)
	assert.NoError(t, r.AppendTransaction(ctx, tx))
	assert.NoError(t, r.MarkSyncFailed(ctx, tx.ID, "backend unreachable"))

	pending, err := r.ListPendingTransactions(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, database.SyncStateFailed, pending[0].SyncState)
	assert.Equal(t, "backend unreachable", *pending[0].SyncError)
}

func TestAppendRejectsNegativeAmount(t *testing.T) {
	r := newTestRepo(t)

	tx := newTx(database.SyncStatePending)
	tx.AmountMinorUnits = -1

	assert.Error(t, r.AppendTransaction(context.TODO(), tx))
}

func TestMarkSyncedUnknownID(t *testing.T) {
	r := newTestRepo(t)

	err := r.MarkSynced(context.TODO(), "missing", "remote")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPendingTransactionCount(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	assert.NoError(t, r.AppendTransaction(ctx, newTx(database.SyncStatePending)))
	assert.NoError(t, r.AppendTransaction(ctx, newTx(database.SyncStateFailed)))

	synced := newTx(database.SyncStatePending)
	assert.NoError(t, r.AppendTransaction(ctx, synced))
	assert.NoError(t, r.MarkSynced(ctx, synced.ID, "r1"))

	count, err := r.PendingTransactionCount(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestWebhookCRUD(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	cfg := &database.WebhookConfig{
		ID:                uuid.NewString(),
		Name:              "erp",
		URL:               "https://erp.example.com/hook",
		PhoneMatchPattern: "",
		APIKey:            "key",
		HMACSecret:        "secret",
		IsActive:          true,
		CreatedAtEpochMs:  1700000000000,
	}

	assert.NoError(t, r.SaveWebhook(ctx, cfg, false))

	active, err := r.ListActiveWebhooks(ctx)
	assert.NoError(t, err)
	assert.Len(t, active, 1)

	assert.NoError(t, r.SetWebhookActive(ctx, cfg.ID, false))

	active, err = r.ListActiveWebhooks(ctx)
	assert.NoError(t, err)
	assert.Empty(t, active)

	all, err := r.ListWebhooks(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, r.DeleteWebhook(ctx, cfg.ID))
	assert.ErrorIs(t, r.DeleteWebhook(ctx, cfg.ID), common.ErrNotFound)
}

func TestSaveWebhookRejectsInsecureURL(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	insecure := &database.WebhookConfig{
		ID:  uuid.NewString(),
		URL: "http://erp.example.com/hook",
	}

	assert.ErrorIs(t, r.SaveWebhook(ctx, insecure, false), common.ErrInsecureURL)

	// Loopback is fine without an override; remote http needs one.
	loopback := &database.WebhookConfig{ID: uuid.NewString(), URL: "http://127.0.0.1:9000/hook"}
	assert.NoError(t, r.SaveWebhook(ctx, loopback, false))

	assert.NoError(t, r.SaveWebhook(ctx, insecure, true))

	bad := &database.WebhookConfig{ID: uuid.NewString(), URL: "ftp://erp.example.com"}
	assert.Error(t, r.SaveWebhook(ctx, bad, true))
}

func TestDeliveryLogLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.TODO()

	entry := &database.DeliveryLog{
		ID:               uuid.NewString(),
		WebhookID:        "wh-1",
		EventID:          "ev-1",
		Sender:           "MTN MoMo",
		Message:          "You have received GHS 50.00",
		Status:           database.DeliveryStatusPending,
		CreatedAtEpochMs: 1700000000000,
	}

	assert.NoError(t, r.CreateDeliveryLog(ctx, entry))

	found, err := r.FindDeliveryLog(ctx, "wh-1", "ev-1")
	assert.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)

	code := 500
	found.Status = database.DeliveryStatusFailed
	found.RetryCount = 1
	found.ResponseCode = &code
	found.NextAttemptAtMs = 1700000030000
	assert.NoError(t, r.UpdateDeliveryLog(ctx, found))

	failed, err := r.ListDeliveriesByStatus(ctx, database.DeliveryStatusFailed)
	assert.NoError(t, err)
	assert.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].RetryCount)

	due, err := r.ListDueDeliveries(ctx, 1700000031000, 10)
	assert.NoError(t, err)
	assert.Len(t, due, 1)

	due, err = r.ListDueDeliveries(ctx, 1700000029000, 10)
	assert.NoError(t, err)
	assert.Empty(t, due)

	byWebhook, err := r.ListDeliveriesByWebhook(ctx, "wh-1")
	assert.NoError(t, err)
	assert.Len(t, byWebhook, 1)

	count, err := r.PendingDeliveryCount(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
