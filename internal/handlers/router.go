package handlers

import (
	"github.com/deskhub/facility-backend/internal/middleware"
	"github.com/deskhub/facility-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services is everything the HTTP layer needs
type Services struct {
	Auth          *services.AuthService
	Users         *services.UserService
	Profiles      *services.ProfileService
	Resources     *services.ResourceService
	Bookings      *services.BookingService
	Leases        *services.LeaseService
	Plans         *services.PlanService
	Subscriptions *services.SubscriptionService
	Settings      *services.SettingService
	Reports       *services.ReportService
	Audit         *services.AuditService
	RateLimiter   *services.RateLimitService
}

// RegisterRoutes mounts the /api/v1 API on r
func RegisterRoutes(r gin.IRouter, svc Services, logger *logrus.Logger) {
	authHandler := NewAuthHandler(svc.Auth, logger)
	profileHandler := NewProfileHandler(svc.Profiles, svc.Reports, logger)
	resourceHandler := NewResourceHandler(svc.Resources, logger)
	bookingHandler := NewBookingHandler(svc.Bookings, logger)
	leaseHandler := NewLeaseHandler(svc.Leases, logger)
	membershipHandler := NewMembershipHandler(svc.Plans, svc.Subscriptions, logger)
	adminHandler := NewAdminHandler(svc.Users, svc.Settings, svc.Audit, logger)
	reportHandler := NewReportHandler(svc.Reports, logger)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequestMeta())

	auth := v1.Group("/auth")
	{
		public := auth.Group("")
		if svc.RateLimiter != nil {
			public.Use(middleware.RateLimit(svc.RateLimiter, logger))
		}
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)

		auth.POST("/logout", middleware.AuthMiddleware(svc.Auth, logger), authHandler.Logout)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Auth, logger))
	protected.Use(middleware.LoadPrincipal(svc.Users, logger))

	// Routes that create a missing profile on first visit
	withProfile := protected.Group("")
	withProfile.Use(middleware.EnsureProfile(svc.Profiles, logger))
	{
		withProfile.GET("/profile", profileHandler.GetProfile)
		withProfile.PUT("/profile", profileHandler.UpdateProfile)
		withProfile.GET("/dashboard", profileHandler.Dashboard)
	}

	resources := protected.Group("/resources")
	{
		resources.GET("", resourceHandler.List)
		resources.POST("", resourceHandler.Create)
		resources.GET("/:id", resourceHandler.Get)
		resources.PUT("/:id", resourceHandler.Update)
		resources.PATCH("/:id/status", resourceHandler.SetStatus)
	}

	bookings := protected.Group("/bookings")
	{
		bookings.GET("", bookingHandler.List)
		bookings.POST("", bookingHandler.Create)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.POST("/:id/approve", bookingHandler.Approve)
		bookings.POST("/:id/reject", bookingHandler.Reject)
		bookings.POST("/:id/cancel", bookingHandler.Cancel)
	}

	leases := protected.Group("/leases")
	{
		leases.GET("", leaseHandler.List)
		leases.POST("", leaseHandler.Create)
		leases.GET("/:id", leaseHandler.Get)
		leases.POST("/:id/activate", leaseHandler.Activate)
		leases.POST("/:id/reject", leaseHandler.Reject)
		leases.POST("/:id/terminate", leaseHandler.Terminate)
	}

	plans := protected.Group("/plans")
	{
		plans.GET("", membershipHandler.ListPlans)
		plans.POST("", membershipHandler.CreatePlan)
		plans.GET("/:id", membershipHandler.GetPlan)
		plans.PUT("/:id", membershipHandler.UpdatePlan)
	}

	subscriptions := protected.Group("/subscriptions")
	{
		subscriptions.GET("", membershipHandler.ListSubscriptions)
		subscriptions.POST("", membershipHandler.CreateSubscription)
		subscriptions.GET("/active", membershipHandler.ActiveSubscription)
		subscriptions.GET("/:id", membershipHandler.GetSubscription)
		subscriptions.POST("/:id/cancel", membershipHandler.CancelSubscription)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/summary", reportHandler.Summary)
		reports.GET("/financial", reportHandler.Financial)
		reports.GET("/bookings.csv", reportHandler.ExportBookings)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
		admin.PATCH("/users/:id/role", adminHandler.SetUserRole)

		admin.GET("/settings", adminHandler.ListSettings)
		admin.GET("/settings/:key", adminHandler.GetSetting)
		admin.PUT("/settings/:key", adminHandler.UpdateSetting)

		admin.GET("/audit-logs", adminHandler.AuditLog)
	}
}
