package response

import (
	"homesit/internal/usecase/queries"
)

type PointsBalanceResponse struct {
	queries.PointsBalanceView
}

func FromPointsBalance(v *queries.PointsBalanceView) *PointsBalanceResponse {
	return &PointsBalanceResponse{PointsBalanceView: *v}
}
