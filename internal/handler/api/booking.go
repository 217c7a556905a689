package api

import (
	"errors"
	"net/http"

	"homesit/internal/domain/booking"
	reqdto "homesit/internal/handler/dto/request"
	resdto "homesit/internal/handler/dto/response"
	"homesit/internal/handler/middleware"
	"homesit/internal/infra"
	"homesit/internal/usecase/commands"
	"homesit/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewBookingHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Create booking
// @Description Request a sit for a listing over a date range
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.bookingCommands.Create(c.Request.Context(), userID, commands.CreateBookingInput{
		ListingID:     req.ListingID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		InsurancePlan: booking.InsurancePlan(req.InsurancePlan),
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Listing not found",
			})
		case errors.Is(err, commands.ErrInvalidDates):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid date range",
			})
		case errors.Is(err, commands.ErrOwnListing):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cannot book your own listing",
			})
		case errors.Is(err, commands.ErrDatesUnavailable):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Dates are no longer available",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.CreateBookingResponse{ID: id})
}

// @Summary Change booking status
// @Description Move a booking through its lifecycle (accept, decline, confirm, cancel, complete)
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.ChangeStatusRequest true "Target status"
// @Success 200 {object} resdto.ChangeStatusResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings/{id}/status [post]
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	var req reqdto.ChangeStatusRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.bookingCommands.ChangeStatus(c.Request.Context(), userID, commands.ChangeStatusInput{
		BookingID: bookingID,
		Target:    booking.Status(req.Status),
		Reason:    req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, booking.ErrUnknownStatus):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown target status",
			})
		case errors.Is(err, booking.ErrNotParticipant), errors.Is(err, booking.ErrNotResponder):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Not allowed to change this booking",
			})
		case errors.Is(err, booking.ErrTerminalStatus), errors.Is(err, booking.ErrIllegalTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, booking.ErrNotYetEnded):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Sit has not ended yet",
			})
		case errors.Is(err, booking.ErrPaymentRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Booking must be paid before completion",
			})
		case errors.Is(err, commands.ErrUpdateConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Booking was updated by someone else, refresh and retry",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.ChangeStatusResponse{
		Status: result.Status.String(),
		NoOp:   result.NoOp,
	})
}

// @Summary Get booking
// @Description Get booking by ID; only the sitter or host can see it
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrBookingNotFound), infra.IsKind(err, infra.KindNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Description List the current user's bookings as sitter, host or both
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role (sitter or host)"
// @Param status query []string false "Filter by status"
// @Success 200 {array} resdto.BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	filter := queries.ListFilter{Role: c.Query("role")}
	for _, s := range c.QueryArray("status") {
		st := booking.Status(s)
		if st.IsValid() {
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	views, err := h.bookingQueries.ListForUser(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingViews(views))
}
