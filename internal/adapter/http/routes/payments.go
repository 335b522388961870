package routes

import (
	"associacao_pagamentos/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathPayments = "/payments"
	PathPlans    = "/plans"
	PathWebhooks = "/webhooks"
	PathHealth   = "/health"
	PathMetrics  = "/metrics"
)

func addPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, auth gin.HandlerFunc) {
	payments := rg.Group(PathPayments, auth)
	{
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.GET("/:id/status", paymentHandler.GetPaymentStatus)
	}
}

func addPlanRoutes(rg *gin.RouterGroup, planHandler *handlers.PlanHandler) {
	plans := rg.Group(PathPlans)
	{
		plans.GET("", planHandler.ListPlans)
		plans.GET("/:id", planHandler.GetPlan)
	}
}

// Provider callbacks authenticate with the shared webhook secret, not a JWT.
func addWebhookRoutes(router *gin.Engine, webhookHandler *handlers.WebhookHandler) {
	webhooks := router.Group(PathWebhooks)
	{
		webhooks.POST("/pix", webhookHandler.ReceivePix)
	}
}
