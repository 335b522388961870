package handlers

import (
	"net/http"

	response "associacao_pagamentos/internal/adapter/http/dto/response"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  response.HealthResponse
// @Router   /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok"})
}
