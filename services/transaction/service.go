package transaction

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"creatorlink-platform/pkg/db/option"
	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/pkg/money"
	"creatorlink-platform/pkg/repository"
	"creatorlink-platform/pkg/sequence"
	taskpkg "creatorlink-platform/pkg/task"
	transactiontask "creatorlink-platform/services/transaction/task"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	node         *snowflake.Node
	seq          sequence.Generator
	enqueuer     taskpkg.Enqueuer
	transactions repository.Repository[Transaction]
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator `optional:"true"`
	Enqueuer taskpkg.Enqueuer   `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		seq:          p.Seq,
		enqueuer:     p.Enqueuer,
		transactions: repository.ProvideStore[Transaction](p.DB),
	}
}

type RecordInput struct {
	InfluencerID string
	CampaignID   string
	TrackingID   string
	Amount       float64
	Description  string
}

// Record writes a pending earning transaction inside the caller's unit of
// work. tx must be the open transaction handle of the operation creating the
// earning; both writes commit or roll back together.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, in RecordInput) (*Transaction, error) {
	txn := &Transaction{
		ID:           s.node.Generate().String(),
		Code:         s.nextCode(ctx, in.InfluencerID),
		Type:         TypeEarning,
		Status:       StatusPending,
		InfluencerID: in.InfluencerID,
		CampaignID:   in.CampaignID,
		TrackingID:   in.TrackingID,
		Amount:       in.Amount,
		CurrencyCode: "USD",
		Description:  in.Description,
	}

	if err := s.transactions.WithTrx(tx).Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create earning transaction: %w", err)
	}

	return txn, nil
}

// nextCode prefers the shared sequence generator; without redis (tests,
// worker binary) it falls back to a time-random code.
func (s *Service) nextCode(ctx context.Context, influencerID string) string {
	if s.seq != nil {
		code, err := s.seq.NextTransactionCode(ctx, influencerID)
		if err == nil {
			return code
		}
		zap.L().Warn("transaction code generator unavailable", zap.Error(err))
	}
	return fmt.Sprintf("TXN-%s-%05d", time.Now().Format("20060102"), rand.Intn(99999))
}

// NotifyRecorded hands the earning to the payout pipeline. Called after the
// recording transaction commits; enqueue failures are logged, not surfaced,
// since the earning row is already durable.
func (s *Service) NotifyRecorded(txn *Transaction) {
	if s.enqueuer == nil {
		return
	}

	event, err := transactiontask.NewEarningRecordedTask(transactiontask.EarningRecordedPayload{
		TransactionID: txn.ID,
		InfluencerID:  txn.InfluencerID,
		CampaignID:    txn.CampaignID,
		Amount:        txn.Amount,
		AmountMinor:   money.Minor(txn.Amount),
		Currency:      txn.CurrencyCode,
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt,
	})
	if err != nil {
		zap.L().Error("failed to build earning recorded task", zap.Error(err))
		return
	}

	if _, err := s.enqueuer.Enqueue(event); err != nil {
		zap.L().Error("failed to enqueue earning recorded task",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	txn, err := s.transactions.FindOne(ctx, &Transaction{ID: transactionID})
	if err != nil {
		zap.L().Error("failed to query transaction", zap.Error(err))
		return nil, err
	}
	if txn == nil {
		return nil, errutil.NotFound("transaction not found", nil)
	}
	if actor.Role == middleware.RoleInfluencer && txn.InfluencerID != actor.ID {
		return nil, errutil.Forbidden("caller does not own this transaction", nil)
	}

	return txn, nil
}

type ListInput struct {
	InfluencerID string
	Status       Status
	Pagination   pagination.Pagination
}

func (s *Service) List(ctx context.Context, in ListInput) ([]*Transaction, *pagination.PageInfo, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, nil, errutil.Unauthorized("caller not authenticated", nil)
	}
	if actor.Role == middleware.RoleInfluencer {
		in.InfluencerID = actor.ID
	}

	limit := in.Pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "id", OrderBy: "DESC", Allow: map[string]bool{"id": true}}),
		option.WithLimit(limit + 1),
	}
	if in.Pagination.Cursor != "" {
		cursor, err := pagination.DecodeCursor(in.Pagination.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.LT, Value: cursor.ID}))
	}

	results, err := s.transactions.Find(ctx, &Transaction{InfluencerID: in.InfluencerID, Status: in.Status}, opts...)
	if err != nil {
		return nil, nil, err
	}

	results, pageInfo := pagination.BuildCursorPageInfo(results, limit, func(t *Transaction) string {
		encoded, _ := pagination.EncodeCursor(pagination.Cursor{ID: t.ID})
		return encoded
	})

	return results, pageInfo, nil
}

// SetStatus moves a transaction along the payout pipeline. Used by the
// worker; terminal states are not revisited.
func (s *Service) SetStatus(ctx context.Context, transactionID string, to Status) error {
	res := s.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status NOT IN ?", transactionID, []Status{StatusPaid, StatusFailed}).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.Conflict("transaction is already settled", nil)
	}
	return nil
}
