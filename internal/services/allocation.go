package services

import "pharmapos_backend/internal/models"

// BatchAllocation is one slice of an allocation plan: take Quantity units
// from the identified batch.
type BatchAllocation struct {
	Batch    models.Batch `json:"batch"`
	Quantity int          `json:"quantity"`
}

// AllocationPlan is the result of walking available stock for a requested
// quantity. Shortfall is the portion that could not be covered; a plan with
// a non-zero shortfall is still valid and the caller decides whether a
// partial fill is acceptable.
type AllocationPlan struct {
	Requested   int               `json:"requested"`
	Allocated   int               `json:"allocated"`
	Shortfall   int               `json:"shortfall"`
	Allocations []BatchAllocation `json:"allocations"`
}

// Covered reports whether the plan fully satisfies the request.
func (p *AllocationPlan) Covered() bool {
	return p.Shortfall == 0
}

// AllocateFEFO walks batches in the given order, taking from each until the
// requested quantity is covered or stock runs out. Batches must already be
// sorted soonest expiry first with id as tiebreaker; empty batches are
// skipped. The walk is deterministic: the same inputs always produce the
// same plan.
func AllocateFEFO(batches []models.Batch, requested int) AllocationPlan {
	plan := AllocationPlan{Requested: requested}

	remaining := requested
	for _, batch := range batches {
		if remaining <= 0 {
			break
		}
		if batch.Quantity <= 0 {
			continue
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		plan.Allocations = append(plan.Allocations, BatchAllocation{Batch: batch, Quantity: take})
		remaining -= take
	}

	plan.Allocated = requested - remaining
	plan.Shortfall = remaining
	return plan
}
