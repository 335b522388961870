package routes

import (
	"log"
	"net/http"

	"associacao_pagamentos/internal/adapter/http/handlers"
	"associacao_pagamentos/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the handlers and collaborators the router mounts.
type Dependencies struct {
	Payments *handlers.PaymentHandler
	Plans    *handlers.PlanHandler
	Webhooks *handlers.WebhookHandler
	JWT      *middleware.HS256Validator
	Metrics  http.Handler
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	setMiddlewares(router)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET(PathHealth, handlers.Health)
	if deps.Metrics != nil {
		router.GET(PathMetrics, gin.WrapH(deps.Metrics))
	}

	addWebhookRoutes(router, deps.Webhooks)

	v1 := router.Group("/v1")
	addPlanRoutes(v1, deps.Plans)
	addPaymentRoutes(v1, deps.Payments, middleware.RequireJWT(deps.JWT))

	return router
}

func setMiddlewares(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}
