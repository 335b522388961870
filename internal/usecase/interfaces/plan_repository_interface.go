package interfaces

import (
	"context"

	"associacao_pagamentos/internal/domain/entities"
)

// IPlanRepository abstracts the plan catalog maintained by the back-office.

type IPlanRepository interface {
	GetByID(ctx context.Context, id string) (entities.Plan, error)
	ListActive(ctx context.Context) ([]entities.Plan, error)
}
