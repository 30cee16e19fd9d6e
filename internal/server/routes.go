package server

import (
	"github.com/OFFIS-RIT/lendnet/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/lendnet/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check routes
	e.GET("/health", routes.HealthHandler)
	e.GET("/health/detailed", routes.DetailedHealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	// Person routes
	apiRoutes.POST("/persons", routes.CreatePersonHandler)
	apiRoutes.GET("/persons/:id", routes.GetPersonHandler)
	apiRoutes.PUT("/persons/:id", routes.UpdatePersonHandler)
	apiRoutes.DELETE("/persons/:id", routes.DeletePersonHandler)
	apiRoutes.GET("/persons/:id/accounts", routes.ListAccountsHandler)

	// Friendship routes
	apiRoutes.POST("/persons/:id/friends", routes.AddFriendHandler)
	apiRoutes.GET("/persons/:id/friends", routes.ListFriendsHandler)
	apiRoutes.DELETE("/persons/:id/friends/:fid", routes.RemoveFriendHandler)
	apiRoutes.GET("/persons/:id/network", routes.NetworkStatsHandler)

	// Ledger routes
	apiRoutes.POST("/accounts", routes.CreateAccountHandler)
	apiRoutes.POST("/transactions", routes.CreateTransactionHandler)

	// Settlement routes
	apiRoutes.POST("/processes", routes.RunProcessHandler)
	apiRoutes.GET("/processes/persons/:id/loan-potential", routes.LoanPotentialHandler)

	// Admin routes
	adminRoutes := apiRoutes.Group("/admin", middleware.RequireAPIKey)
	adminRoutes.POST("/reconcile", routes.ReconcileHandler)
	adminRoutes.DELETE("/graph", routes.ClearGraphHandler)
}
