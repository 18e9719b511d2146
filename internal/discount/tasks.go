package discount

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeCleanup is the asynq task type for the expired-window sweep.
const TypeCleanup = "discount:cleanup"

type CleanupPayload struct {
	SellerID string `json:"seller_id,omitempty"`
}

// NewCleanupTask builds a sweep task. An empty sellerID sweeps every seller.
func NewCleanupTask(sellerID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupPayload{SellerID: sellerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCleanup, payload, asynq.MaxRetry(3)), nil
}

// TaskHandler runs cleanup tasks on the worker.
type TaskHandler struct {
	Svc *Service
}

func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload CleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w: %w", TypeCleanup, err, asynq.SkipRetry)
		}
	}
	_, err := h.Svc.Cleanup(ctx, payload.SellerID)
	return err
}
