package request

import (
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ListingID     uuid.UUID `json:"listing_id" binding:"required"`
	StartDate     string    `json:"start_date" binding:"required"`
	EndDate       string    `json:"end_date" binding:"required"`
	InsurancePlan string    `json:"insurance_plan" binding:"omitempty,oneof=standard premium"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted declined confirmed cancelled completed"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}
