//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"homesit/internal/domain/booking"
	"homesit/internal/handler/api"
	resdto "homesit/internal/handler/dto/response"
	"homesit/internal/usecase/commands"
	"homesit/internal/usecase/queries"
	"homesit/tests/common/builder"
	"homesit/tests/common/httptest"
	"homesit/tests/common/testutil"
	commandsmock "homesit/tests/mock/commands"
	queriesmock "homesit/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	userID       uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.userID = uuid.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Next()
	}

	s.router.POST("/bookings", authMiddleware, s.handler.CreateBooking)
	s.router.GET("/bookings", authMiddleware, s.handler.ListBookings)
	s.router.GET("/bookings/:id", authMiddleware, s.handler.GetBooking)
	s.router.POST("/bookings/:id/status", authMiddleware, s.handler.ChangeStatus)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreateBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"

	reqBody := builder.NewBookingBuilder().BuildCreateRequestDTO()
	createdID := uuid.New()

	s.Run("success: returns 201 Created with the new id", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.userID, gomock.Any()).
			Return(createdID, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(createdID.String(), body["id"])
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		validation := []testCaseBooking{
			{name: "missing field: listing_id", mutate: testutil.Field("listing_id", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: start_date", mutate: testutil.Field("start_date", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: end_date", mutate: testutil.Field("end_date", nil), expectCode: http.StatusBadRequest},
			{name: "unknown insurance plan", mutate: testutil.Field("insurance_plan", "platinum"), expectCode: http.StatusBadRequest},
			{name: "valid insurance plan", mutate: testutil.Field("insurance_plan", "premium"), expectCode: http.StatusCreated},
			{name: "standard insurance plan", mutate: testutil.Field("insurance_plan", "standard"), expectCode: http.StatusCreated},
		}

		for _, tc := range validation {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

				if tc.expectCode == http.StatusCreated {
					s.mockCommands.EXPECT().Create(gomock.Any(), s.userID, gomock.Any()).
						Return(createdID, nil).Times(1)
				}
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				if tc.expectCode == http.StatusCreated {
					httptest.AssertSuccessResponse(s.T(), rec, tc.expectCode, nil)
				} else {
					httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
				}
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "listing not found",
				commandsError:  commands.ErrListingNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Listing not found",
			},
			{
				name:           "invalid dates",
				commandsError:  commands.ErrInvalidDates,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Invalid date range",
			},
			{
				name:           "own listing",
				commandsError:  commands.ErrOwnListing,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Cannot book your own listing",
			},
			{
				name:           "dates unavailable",
				commandsError:  commands.ErrDatesUnavailable,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "Dates are no longer available",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Create(gomock.Any(), s.userID, gomock.Any()).
					Return(uuid.Nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestChangeStatus
// ================================================================================

func (s *BookingHandlerTestSuite) TestChangeStatus() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String() + "/status"
	reqBody := map[string]any{"status": "accepted"}

	s.Run("success: returns 200 OK with the new status", func() {
		s.mockCommands.EXPECT().ChangeStatus(gomock.Any(), s.userID, gomock.Any()).
			Return(&commands.ChangeStatusResult{Status: booking.StatusAccepted}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var response resdto.ChangeStatusResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("accepted", response.Status)
		s.False(response.NoOp)
	})

	s.Run("success: no-op repeat is flagged", func() {
		s.mockCommands.EXPECT().ChangeStatus(gomock.Any(), s.userID, gomock.Any()).
			Return(&commands.ChangeStatusResult{Status: booking.StatusAccepted, NoOp: true}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var response resdto.ChangeStatusResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.NoOp)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/not-a-uuid/status", reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID format")
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		validation := []testCaseBooking{
			{name: "missing status", mutate: testutil.Field("status", nil), expectCode: http.StatusBadRequest},
			{name: "status outside the lifecycle", mutate: testutil.Field("status", "archived"), expectCode: http.StatusBadRequest},
			{name: "pending is not a target", mutate: testutil.Field("status", "pending"), expectCode: http.StatusBadRequest},
			{name: "oversized reason", mutate: testutil.Field("reason", strings.Repeat("a", 501)), expectCode: http.StatusBadRequest},
		}

		for _, tc := range validation {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
			})
		}
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "booking not found",
				commandsError:  commands.ErrBookingNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Booking not found",
			},
			{
				name:           "not a participant",
				commandsError:  booking.ErrNotParticipant,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Not allowed to change this booking",
			},
			{
				name:           "not the responder",
				commandsError:  booking.ErrNotResponder,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    "Not allowed to change this booking",
			},
			{
				name:           "terminal status",
				commandsError:  booking.ErrTerminalStatus,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "",
			},
			{
				name:           "illegal transition",
				commandsError:  booking.ErrIllegalTransition,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "",
			},
			{
				name:           "not yet ended",
				commandsError:  booking.ErrNotYetEnded,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "Sit has not ended yet",
			},
			{
				name:           "unpaid completion",
				commandsError:  booking.ErrPaymentRequired,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    "Booking must be paid before completion",
			},
			{
				name:           "concurrent update",
				commandsError:  commands.ErrUpdateConflict,
				expectedStatus: http.StatusConflict,
				expectedMsg:    "refresh and retry",
			},
			{
				name:           "internal server error",
				commandsError:  errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().ChangeStatus(gomock.Any(), s.userID, gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestGetBooking
// ================================================================================

func (s *BookingHandlerTestSuite) TestGetBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String()

	returnView := builder.NewBookingBuilder().BuildView()
	returnView.ID = bookingID

	s.Run("success: returns 200 OK with BookingResponse", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.userID, bookingID).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var response resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(bookingID, response.ID)
		s.Equal(returnView.Status, response.Status)
		s.Equal(returnView.Fees.TotalFee, response.Fees.TotalFee)
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/invalid-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking ID format")
	})

	s.Run("error: 404 Not Found hides other people's bookings", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), s.userID, bookingID).
			Return(nil, queries.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

// ================================================================================
// TestListBookings
// ================================================================================

func (s *BookingHandlerTestSuite) TestListBookings() {
	url := "/bookings"

	s.Run("success: forwards role and valid status filters", func() {
		view := builder.NewBookingBuilder().BuildView()
		s.mockQueries.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ any, _ uuid.UUID, filter queries.ListFilter) ([]queries.BookingView, error) {
				s.Equal("sitter", filter.Role)
				s.Equal([]booking.Status{booking.StatusAccepted, booking.StatusConfirmed}, filter.Statuses)
				return []queries.BookingView{*view}, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet,
			url+"?role=sitter&status=accepted&status=confirmed&status=bogus", nil, "bearer-token")

		var response []resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Len(response, 1)
		s.Equal(view.ID, response[0].ID)
	})

	s.Run("success: empty result is an empty array", func() {
		s.mockQueries.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).
			Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 500 on query failure", func() {
		s.mockQueries.EXPECT().ListForUser(gomock.Any(), s.userID, gomock.Any()).
			Return(nil, errors.New("database error")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}
