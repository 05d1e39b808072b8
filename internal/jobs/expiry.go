package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"pharmapos_backend/internal/services"
)

const (
	// QueueDefault is the queue background tasks run on.
	QueueDefault = "default"

	// TaskTypeExpirySweep zeroes expiring stock.
	TaskTypeExpirySweep = "inventory:expiry_sweep"

	// SystemUserID attributes scheduled mutations that no human triggered.
	SystemUserID int64 = 0
)

// ExpirySweepPayload parameterizes one sweep. A nil StoreID sweeps every
// store.
type ExpirySweepPayload struct {
	StoreID *int64 `json:"store_id,omitempty"`
	Days    int    `json:"days"`
}

// NewExpirySweepTask constructs the asynq task for a sweep.
func NewExpirySweepTask(payload ExpirySweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExpirySweep, data, asynq.Queue(QueueDefault)), nil
}

// ExpirySweepHandler processes TaskTypeExpirySweep tasks.
type ExpirySweepHandler struct {
	expiryService *services.ExpiryService
}

// NewExpirySweepHandler creates a new ExpirySweepHandler.
func NewExpirySweepHandler(expiryService *services.ExpiryService) *ExpirySweepHandler {
	return &ExpirySweepHandler{expiryService: expiryService}
}

// ProcessTask runs the sweep described by the task payload.
func (h *ExpirySweepHandler) ProcessTask(_ context.Context, task *asynq.Task) error {
	var payload ExpirySweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if payload.StoreID != nil {
		count, err := h.expiryService.ExpireWithinDays(*payload.StoreID, payload.Days, SystemUserID)
		if err != nil {
			return err
		}
		log.Info().Int64("store_id", *payload.StoreID).Int("days", payload.Days).
			Int("batches_expired", count).Msg("Expiry sweep completed")
		return nil
	}

	counts, err := h.expiryService.ExpireAllStores(payload.Days, SystemUserID)
	if err != nil {
		return err
	}
	total := 0
	for _, count := range counts {
		total += count
	}
	log.Info().Int("days", payload.Days).Int("stores", len(counts)).
		Int("batches_expired", total).Msg("Expiry sweep completed for all stores")
	return nil
}
