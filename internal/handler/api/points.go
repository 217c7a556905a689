package api

import (
	"net/http"

	resdto "homesit/internal/handler/dto/response"
	"homesit/internal/handler/middleware"
	"homesit/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	pointsQueries queries.PointsQueries
}

func NewPointsHandler(pointsQueries queries.PointsQueries) *PointsHandler {
	return &PointsHandler{pointsQueries: pointsQueries}
}

// @Summary Get points balance
// @Description Get the current user's loyalty points balance and ledger
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.PointsBalanceResponse
// @Failure 401 {object} map[string]string
// @Router /points/balance [get]
func (h *PointsHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	view, err := h.pointsQueries.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromPointsBalance(view))
}
