package handlers

import (
	"errors"
	"log"
	"net/http"

	request "associacao_pagamentos/internal/adapter/http/dto/request"
	response "associacao_pagamentos/internal/adapter/http/dto/response"
	"associacao_pagamentos/internal/usecase"
	"associacao_pagamentos/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidPaymentPayload = pkg.NewDomainErrorSimple("INVALID_PAYMENT_INPUT", "Invalid payment payload", http.StatusBadRequest)
)

// PaymentHandler serves checkout: charge creation and status polling.

type PaymentHandler struct {
	charges usecase.IChargeUseCase
	queries usecase.IPaymentQueryUseCase
}

func NewPaymentHandler(charges usecase.IChargeUseCase, queries usecase.IPaymentQueryUseCase) *PaymentHandler {
	return &PaymentHandler{charges: charges, queries: queries}
}

// CreatePayment godoc
// @Summary      Create a PIX charge
// @Description  Issues a PIX charge with the provider and stores it PENDING.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        payment  body      request.CreatePaymentRequest  true  "Charge request"
// @Success      201      {object}  response.CreatePaymentResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      401      {object}  pkg.HTTPError
// @Failure      404      {object}  pkg.HTTPError
// @Failure      409      {object}  pkg.HTTPError
// @Failure      503      {object}  pkg.HTTPError
// @Router       /v1/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var payload request.CreatePaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("[payment][handler] invalid create payload err=%v", err)
		c.JSON(errInvalidPaymentPayload.HTTPStatus, errInvalidPaymentPayload.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] create start type=%s plan_id=%s appointment_id=%s", payload.Type, payload.PlanID, payload.AppointmentID)

	created, err := h.charges.CreateCharge(c.Request.Context(), payload.ToInput())
	if err != nil {
		log.Printf("[payment][handler] create failed type=%s err=%v", payload.Type, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[payment][handler] create success payment_id=%s provider_identifier=%s", created.ID, created.ProviderIdentifier)

	c.JSON(http.StatusCreated, response.FromCreatedPayment(created))
}

// GetPaymentStatus godoc
// @Summary      Poll a payment status
// @Tags         payments
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.PaymentStatusResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      404  {object}  pkg.HTTPError
// @Router       /v1/payments/{id}/status [get]
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	id := c.Param("id")

	status, err := h.queries.GetStatus(c.Request.Context(), id)
	if err != nil {
		log.Printf("[payment][handler] get-status failed payment_id=%s err=%v", id, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.PaymentStatusResponse{PaymentID: id, Status: string(status)})
}

// GetPayment godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.PaymentResponse
// @Failure      400  {object}  pkg.HTTPError
// @Failure      404  {object}  pkg.HTTPError
// @Router       /v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")

	p, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[payment][handler] get failed payment_id=%s err=%v", id, err)
		appErr := mapPaymentError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromPayment(p))
}

func mapPaymentError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidPaymentType):
		return pkg.NewDomainErrorSimple("INVALID_PAYMENT_TYPE", "Payment type must be MONTHLY_DUE, CONSULTATION or FIRST_CONSULTATION", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidPayerDocument):
		return pkg.NewDomainErrorSimple("INVALID_PAYER_DOCUMENT", "Invalid CPF", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrMissingPlanID), errors.Is(err, usecase.ErrMissingAppointmentID), errors.Is(err, usecase.ErrInvalidPaymentID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_REJECTED", "Payment provider rejected the charge", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPlanNotFound):
		return pkg.NewDomainErrorSimple("PLAN_NOT_FOUND", "Plan not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		return pkg.NewDomainErrorSimple("APPOINTMENT_NOT_FOUND", "Appointment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPaymentNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_NOT_FOUND", "Payment not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrPlanInactive):
		return pkg.NewDomainErrorSimple("PLAN_INACTIVE", "Plan is not active", http.StatusConflict)
	case errors.Is(err, usecase.ErrAppointmentNotPayable):
		return pkg.NewDomainErrorSimple("APPOINTMENT_NOT_PAYABLE", "Appointment is not awaiting payment", http.StatusConflict)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainError("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider rejected our credentials", err, http.StatusBadGateway)
	case errors.Is(err, usecase.ErrPaymentProviderUnavailable), errors.Is(err, usecase.ErrPaymentGatewayNotSet):
		return pkg.NewDomainError("PAYMENT_PROVIDER_UNAVAILABLE", "Payment provider unavailable, try again", err, http.StatusServiceUnavailable)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
