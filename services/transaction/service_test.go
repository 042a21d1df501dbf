package transaction_test

import (
	"context"
	"encoding/json"
	"testing"

	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/services/testutil"
	"creatorlink-platform/services/transaction"
	transactiontask "creatorlink-platform/services/transaction/task"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "test", Queue: "default"}, nil
}

func newService(t *testing.T) (*transaction.Service, *gorm.DB, *fakeEnqueuer) {
	t.Helper()

	db := testutil.NewTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}
	svc := transaction.NewService(transaction.Params{DB: db, Node: node, Enqueuer: enq})

	return svc, db, enq
}

func record(t *testing.T, svc *transaction.Service, db *gorm.DB, amount float64) *transaction.Transaction {
	t.Helper()

	var txn *transaction.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = svc.Record(context.Background(), tx, transaction.RecordInput{
			InfluencerID: "inf-1",
			CampaignID:   "cmp-1",
			TrackingID:   "trk-1",
			Amount:       amount,
			Description:  "CPM earning for 20000 tracked views on campaign CMP-001",
		})
		return err
	})
	require.NoError(t, err)
	return txn
}

func influencerCtx(id string) context.Context {
	return middleware.WithActor(context.Background(), middleware.Actor{ID: id, Role: middleware.RoleInfluencer})
}

func TestRecordCreatesPendingEarning(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 200)
	require.Equal(t, transaction.TypeEarning, txn.Type)
	require.Equal(t, transaction.StatusPending, txn.Status)
	require.Equal(t, "USD", txn.CurrencyCode)
	require.NotEmpty(t, txn.Code)

	var stored transaction.Transaction
	require.NoError(t, db.First(&stored, "id = ?", txn.ID).Error)
	require.Equal(t, 200.00, stored.Amount)
}

func TestRecordRollsBackWithCallerTransaction(t *testing.T) {
	svc, db, _ := newService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Record(context.Background(), tx, transaction.RecordInput{
			InfluencerID: "inf-1",
			CampaignID:   "cmp-1",
			TrackingID:   "trk-1",
			Amount:       100,
		})
		require.NoError(t, err)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&transaction.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestNotifyRecordedEnqueuesEvent(t *testing.T) {
	svc, db, enq := newService(t)

	txn := record(t, svc, db, 350.50)
	svc.NotifyRecorded(txn)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, transactiontask.TypeEarningRecorded, enq.tasks[0].Type())

	var p transactiontask.EarningRecordedPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	require.Equal(t, txn.ID, p.TransactionID)
	require.Equal(t, "inf-1", p.InfluencerID)
	require.Equal(t, 350.50, p.Amount)
	require.Equal(t, int64(35050), p.AmountMinor)
}

func TestSetStatusSkipsSettledTransactions(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 100)

	require.NoError(t, svc.SetStatus(context.Background(), txn.ID, transaction.StatusProcessing))
	require.NoError(t, svc.SetStatus(context.Background(), txn.ID, transaction.StatusPaid))

	err := svc.SetStatus(context.Background(), txn.ID, transaction.StatusProcessing)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Status())

	var stored transaction.Transaction
	require.NoError(t, db.First(&stored, "id = ?", txn.ID).Error)
	require.Equal(t, transaction.StatusPaid, stored.Status)
}

func TestHandleEarningRecordedMovesToProcessing(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 100)

	task, err := transactiontask.NewEarningRecordedTask(transactiontask.EarningRecordedPayload{
		TransactionID: txn.ID,
		InfluencerID:  txn.InfluencerID,
		CampaignID:    txn.CampaignID,
		Amount:        txn.Amount,
		Currency:      txn.CurrencyCode,
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleEarningRecorded(context.Background(), task))

	var stored transaction.Transaction
	require.NoError(t, db.First(&stored, "id = ?", txn.ID).Error)
	require.Equal(t, transaction.StatusProcessing, stored.Status)
}

func TestHandleEarningRecordedDropsSettledTransaction(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 100)
	require.NoError(t, svc.SetStatus(context.Background(), txn.ID, transaction.StatusPaid))

	task, err := transactiontask.NewEarningRecordedTask(transactiontask.EarningRecordedPayload{
		TransactionID: txn.ID,
		InfluencerID:  txn.InfluencerID,
		Amount:        txn.Amount,
	})
	require.NoError(t, err)

	// duplicate delivery after settlement must not surface an error, or the
	// queue would retry it forever
	require.NoError(t, svc.HandleEarningRecorded(context.Background(), task))

	var stored transaction.Transaction
	require.NoError(t, db.First(&stored, "id = ?", txn.ID).Error)
	require.Equal(t, transaction.StatusPaid, stored.Status)
}

func TestGetRequiresActor(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 100)

	_, err := svc.Get(context.Background(), txn.ID)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnauthorized, base.Status())

	got, err := svc.Get(influencerCtx("inf-1"), txn.ID)
	require.NoError(t, err)
	require.Equal(t, txn.ID, got.ID)
}

func TestInfluencerScopedToOwnTransactions(t *testing.T) {
	svc, db, _ := newService(t)

	txn := record(t, svc, db, 100)

	_, err := svc.Get(influencerCtx("inf-2"), txn.ID)
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusForbidden, base.Status())

	// a filter for someone else's rows is overridden by the caller identity
	rows, _, err := svc.List(influencerCtx("inf-2"), transaction.ListInput{
		InfluencerID: "inf-1",
	})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, db, _ := newService(t)

	first := record(t, svc, db, 100)
	second := record(t, svc, db, 200)
	require.NoError(t, svc.SetStatus(context.Background(), second.ID, transaction.StatusProcessing))

	pending, _, err := svc.List(influencerCtx("inf-1"), transaction.ListInput{
		Status: transaction.StatusPending,
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, first.ID, pending[0].ID)
}
