package handlers

import (
	"errors"
	"net/http"

	response "associacao_pagamentos/internal/adapter/http/dto/response"
	"associacao_pagamentos/internal/usecase"
	"associacao_pagamentos/pkg"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	usecase usecase.IPlanUseCase
}

func NewPlanHandler(uc usecase.IPlanUseCase) *PlanHandler {
	return &PlanHandler{usecase: uc}
}

// ListPlans godoc
// @Summary  List active membership plans
// @Tags     plans
// @Produce  json
// @Success  200  {array}   response.PlanResponse
// @Failure  500  {object}  pkg.HTTPError
// @Router   /v1/plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.usecase.ListActive(c.Request.Context())
	if err != nil {
		appErr := mapPlanError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPlans(plans))
}

// GetPlan godoc
// @Summary  Get a membership plan
// @Tags     plans
// @Produce  json
// @Param    id   path      string  true  "Plan ID"
// @Success  200  {object}  response.PlanResponse
// @Failure  404  {object}  pkg.HTTPError
// @Router   /v1/plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	p, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapPlanError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPlan(p))
}

func mapPlanError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidPlanID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPlanNotFound):
		return pkg.NewDomainErrorSimple("PLAN_NOT_FOUND", "Plan not found", http.StatusNotFound)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
