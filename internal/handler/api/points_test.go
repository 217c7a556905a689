//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"homesit/internal/handler/api"
	resdto "homesit/internal/handler/dto/response"
	"homesit/internal/usecase/queries"
	"homesit/tests/common/httptest"
	queriesmock "homesit/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PointsHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockPointsQueries
	userID      uuid.UUID
}

func (s *PointsHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.userID = uuid.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockPointsQueries(s.mockCtrl)
	handler := api.NewPointsHandler(s.mockQueries)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Next()
	}

	s.router.GET("/points/balance", authMiddleware, handler.GetBalance)
}

func (s *PointsHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPointsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PointsHandlerTestSuite))
}

func (s *PointsHandlerTestSuite) TestGetBalance() {
	url := "/points/balance"

	s.Run("success: returns the ledger view", func() {
		s.mockQueries.EXPECT().Balance(gomock.Any(), s.userID).
			Return(&queries.PointsBalanceView{
				Balance: 3,
				Entries: []queries.PointsEntryView{{BookingID: uuid.New(), Delta: 3, Reason: "award"}},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.PointsBalanceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(int64(3), response.Balance)
		s.Len(response.Entries, 1)
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: 500 on query failure", func() {
		s.mockQueries.EXPECT().Balance(gomock.Any(), s.userID).
			Return(nil, errors.New("database error")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}
