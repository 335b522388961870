package handlers

import (
	"errors"
	"log"
	"net/http"

	response "associacao_pagamentos/internal/adapter/http/dto/response"
	"associacao_pagamentos/internal/usecase"
	"associacao_pagamentos/pkg"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives PIX provider callbacks. Anything but a 200 makes
// the provider retry the delivery.

type WebhookHandler struct {
	usecase usecase.IWebhookUseCase
}

func NewWebhookHandler(uc usecase.IWebhookUseCase) *WebhookHandler {
	return &WebhookHandler{usecase: uc}
}

// ReceivePix godoc
// @Summary      PIX provider webhook
// @Description  Applies a provider payment notification. Duplicate and unknown deliveries are acknowledged.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Authorization  header    string  true  "Bearer <webhook secret>"
// @Success      200            {object}  response.WebhookAckResponse
// @Failure      400            {object}  pkg.HTTPError
// @Failure      401            {object}  pkg.HTTPError
// @Failure      500            {object}  pkg.HTTPError
// @Router       /webhooks/pix [post]
func (h *WebhookHandler) ReceivePix(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		log.Printf("[payment][webhook-handler] body read failed err=%v", err)
		appErr := mapWebhookError(usecase.ErrInvalidWebhookPayload)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	result, err := h.usecase.Process(c.Request.Context(), c.GetHeader("Authorization"), body)
	if err != nil {
		appErr := mapWebhookError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Printf("[payment][webhook-handler] processing failed, provider will retry err=%v", err)
		}
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][webhook-handler] processed outcome=%s payment_id=%s", result.Outcome, result.PaymentID)

	c.JSON(http.StatusOK, response.WebhookAckResponse{Received: true})
}

func mapWebhookError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrWebhookUnauthorized):
		return pkg.NewDomainErrorSimple("UNAUTHORIZED", "Invalid webhook credentials", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidWebhookPayload):
		return pkg.NewDomainErrorSimple("INVALID_WEBHOOK_PAYLOAD", "Invalid webhook payload", http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
