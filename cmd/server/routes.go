package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mortgagemate/backend/internal/handlers"
	"github.com/mortgagemate/backend/internal/middleware"
	"github.com/mortgagemate/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiters: tight on the public auth endpoints, looser on uploads
	loginLimiter := middleware.NewRateLimiter(5, 10)
	uploadLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", handlers.Health)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", loginLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.UserActive(svc.db))
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Dashboard
			protected.GET("/dashboard/stats", svc.dashHandler.GetStats)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Project lifecycle
			protected.POST("/projects/:id/stage", svc.projectHandler.ChangeStage)
			protected.POST("/projects/:id/status", svc.projectHandler.ChangeStatus)
			protected.PUT("/projects/:id/milestones", svc.projectHandler.UpdateMilestones)

			// Commission
			protected.GET("/projects/:id/commission", svc.projectHandler.GetCommission)
			protected.PUT("/projects/:id/commission", svc.projectHandler.UpdateCommission)

			// Project documents
			protected.GET("/projects/:id/documents", svc.documentHandler.List)
			protected.POST("/projects/:id/documents", uploadLimiter.Middleware(), svc.documentHandler.Upload)
			protected.GET("/projects/:id/documents/progress", svc.documentHandler.Progress)
			protected.GET("/projects/:id/documents/checklist", svc.documentHandler.Checklist)
			protected.GET("/projects/:id/documents/files/:fileId", svc.documentHandler.Download)

			// Documents
			protected.POST("/documents/:id/verify", svc.documentHandler.Verify)
			protected.POST("/documents/:id/reject", svc.documentHandler.Reject)
			protected.DELETE("/documents/:id/files/:fileId", svc.documentHandler.RemoveFile)
			protected.DELETE("/documents/:id", svc.documentHandler.Delete)

			// Activity feed
			protected.GET("/projects/:id/activity", svc.auditHandler.ProjectActivity)
			protected.GET("/audit-logs", svc.auditHandler.List)

			// Registries
			protected.GET("/banks", svc.bankHandler.List)
			protected.GET("/banks/:id", svc.bankHandler.GetByID)
			protected.POST("/banks", svc.bankHandler.Create)
			protected.PUT("/banks/:id", svc.bankHandler.Update)
			protected.DELETE("/banks/:id", svc.bankHandler.Delete)

			protected.GET("/referral-companies", svc.referralHandler.List)
			protected.GET("/referral-companies/:id", svc.referralHandler.GetByID)
			protected.POST("/referral-companies", svc.referralHandler.Create)
			protected.PUT("/referral-companies/:id", svc.referralHandler.Update)
			protected.DELETE("/referral-companies/:id", svc.referralHandler.Delete)

			// Users (admin gating enforced in the service layer)
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/:id", svc.userHandler.GetByID)
			protected.POST("/users", svc.userHandler.Create)
			protected.PUT("/users/:id", svc.userHandler.Update)
			protected.DELETE("/users/:id", svc.userHandler.Delete)
		}
	}
}
