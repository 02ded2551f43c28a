package routes

import (
	"mess-management-api/handlers"
	"mess-management-api/metrics"
	"mess-management-api/middleware"
	"mess-management-api/models"
	"mess-management-api/realtime"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the route table is built from. Hub and Metrics
// may be nil, which leaves /api/ws and /metrics unregistered.
type Deps struct {
	Handler *handlers.Handler
	Auth    *middleware.Authenticator
	Hub     *realtime.Hub
	Metrics *metrics.Metrics
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	r.GET("/health", handlers.Health)
	r.GET("/", handlers.Welcome)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth & account recovery
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.POST("/auth/otp/request", h.RequestOTP)
		public.POST("/auth/otp/verify", h.VerifyOTP)
		public.POST("/auth/password/reset", h.ResetPassword)

		// Menu (no auth needed)
		public.GET("/menu", h.GetWeekMenu)
		public.GET("/menu/:day/:meal", h.GetMenuSlot)

		// State machine info
		public.GET("/suggestions/state-machine", handlers.GetStateMachineInfo)

		// Live vote and rating updates
		if d.Hub != nil {
			public.GET("/ws", gin.WrapF(d.Hub.ServeWS))
		}
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(d.Auth.Required())
	{
		auth.POST("/auth/logout", h.Logout)
		auth.GET("/profile", h.GetProfile)
		auth.PUT("/profile/password", h.ChangePassword)

		auth.POST("/reviews", h.SubmitReview)
		auth.GET("/reviews", h.ListReviews)
		auth.GET("/reviews/stats", h.ReviewStats)

		auth.POST("/attendance", h.MarkAttendance)
		auth.GET("/attendance", h.MyAttendance)

		auth.POST("/suggestions", h.CreateSuggestion)
		auth.GET("/suggestions", h.ListSuggestions)
		auth.GET("/suggestions/:id", h.GetSuggestion)
		auth.POST("/suggestions/:id/like", h.LikeSuggestion)
		auth.POST("/suggestions/:id/dislike", h.DislikeSuggestion)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(d.Auth.Required(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.PUT("/menu", h.AdminUpsertMenu)
		admin.PUT("/suggestions/:id/status", h.AdminSetSuggestionStatus)
		admin.GET("/attendance/stats", h.AdminAttendanceStats)
		admin.GET("/users", h.AdminGetAllUsers)
	}
}
