package response

import (
	"homesit/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateBookingResponse struct {
	ID uuid.UUID `json:"id"`
}

type ChangeStatusResponse struct {
	Status string `json:"status"`
	NoOp   bool   `json:"no_op,omitempty"`
}

type BookingResponse struct {
	queries.BookingView
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{BookingView: *v}
}

func FromBookingViews(views []queries.BookingView) []*BookingResponse {
	out := make([]*BookingResponse, len(views))
	for i := range views {
		out[i] = &BookingResponse{BookingView: views[i]}
	}
	return out
}
