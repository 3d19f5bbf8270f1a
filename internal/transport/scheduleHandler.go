package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/classbooker/internal/entity"
	"github.com/ds124wfegd/classbooker/internal/service"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// BookingActionRequest представляет тело запроса отмены или чекина
type BookingActionRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// statusFromError отображает ошибки бизнес-правил в HTTP-статусы:
// отсутствующие сущности — 404, конкуренция за блокировку — 409,
// остальные отказы — 400, все прочее — 500.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrPackageNotFound),
		errors.Is(err, entity.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrLockContention):
		return http.StatusConflict
	case errors.Is(err, entity.ErrSessionFull),
		errors.Is(err, entity.ErrSessionNotFull),
		errors.Is(err, entity.ErrPackageExpired),
		errors.Is(err, entity.ErrInsufficientCredits),
		errors.Is(err, entity.ErrCountryMismatch),
		errors.Is(err, entity.ErrOverlappingBooking),
		errors.Is(err, entity.ErrBookingAlreadyCancelled),
		errors.Is(err, entity.ErrAlreadyWaitlisted),
		errors.Is(err, entity.ErrCheckInTooEarly),
		errors.Is(err, entity.ErrCheckInTooLate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func (h *ScheduleHandler) BookClass(c *gin.Context) {
	var req service.BookClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	booking, err := h.scheduleService.BookClass(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

func (h *ScheduleHandler) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid booking ID",
		})
		return
	}

	var req BookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.scheduleService.CancelBooking(c.Request.Context(), req.UserID, bookingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Booking cancelled successfully",
	})
}

func (h *ScheduleHandler) CheckIn(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid booking ID",
		})
		return
	}

	var req BookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	booking, err := h.scheduleService.CheckIn(c.Request.Context(), req.UserID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Checked in successfully",
		Data:    booking,
	})
}

func (h *ScheduleHandler) GetBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid booking ID",
		})
		return
	}

	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid user ID",
		})
		return
	}

	booking, err := h.scheduleService.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *ScheduleHandler) GetUserBookings(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid user ID",
		})
		return
	}

	bookings, err := h.scheduleService.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *ScheduleHandler) GetUserPackages(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid user ID",
		})
		return
	}

	packages, err := h.scheduleService.ListUserPackages(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, packages)
}

func (h *ScheduleHandler) JoinWaitlist(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid session ID",
		})
		return
	}

	var req service.JoinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}
	req.SessionID = sessionID

	entry, err := h.scheduleService.AddToWaitlist(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Added to waitlist",
		Data:    entry,
	})
}

func (h *ScheduleHandler) GetWaitlist(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid session ID",
		})
		return
	}

	entries, err := h.scheduleService.ListWaitlist(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
