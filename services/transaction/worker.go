package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"creatorlink-platform/pkg/errutil"
	transactiontask "creatorlink-platform/services/transaction/task"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Worker wires the earning event consumer for the worker binary. It moves
// freshly recorded earnings into processing so the payment rails can claim
// them.
var Worker = fx.Module("transaction.worker",
	fx.Provide(NewService),
	fx.Invoke(registerTaskHandlers),
)

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(transactiontask.TypeEarningRecorded, svc.HandleEarningRecorded)
}

func (s *Service) HandleEarningRecorded(ctx context.Context, t *asynq.Task) error {
	var p transactiontask.EarningRecordedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		zap.L().Error("invalid earning recorded payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	zap.L().Info("earning recorded",
		zap.String("transaction_id", p.TransactionID),
		zap.String("influencer_id", p.InfluencerID),
		zap.Float64("amount", p.Amount),
	)

	if err := s.SetStatus(ctx, p.TransactionID, StatusProcessing); err != nil {
		// an already-settled transaction means a duplicate delivery; retrying
		// can never succeed
		var base errutil.BaseError
		if errors.As(err, &base) && base.Status() == errutil.StatusConflict {
			zap.L().Warn("earning already settled, dropping event",
				zap.String("transaction_id", p.TransactionID))
			return nil
		}
		return err
	}

	return nil
}
