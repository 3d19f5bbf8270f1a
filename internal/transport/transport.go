package transport

import (
	"github.com/ds124wfegd/classbooker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(scheduleHandler *ScheduleHandler, sessionHandler *SessionHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// API routes
	api := router.Group("/api/v1")
	{
		// Session routes
		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.GetUpcomingSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.GET("/:id/waitlist", scheduleHandler.GetWaitlist)
			sessions.POST("/:id/waitlist", scheduleHandler.JoinWaitlist)
		}

		// Booking routes
		bookings := api.Group("/bookings")
		{
			bookings.POST("", scheduleHandler.BookClass)
			bookings.GET("/:id", scheduleHandler.GetBooking)
			bookings.POST("/:id/cancel", scheduleHandler.CancelBooking)
			bookings.POST("/:id/checkin", scheduleHandler.CheckIn)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/:user_id/bookings", scheduleHandler.GetUserBookings)
			users.GET("/:user_id/packages", scheduleHandler.GetUserPackages)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return router
}
