package usecase

import (
	"context"
	"log"
	"sort"
	"strings"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

type IPlanUseCase interface {
	ListActive(ctx context.Context) ([]entities.Plan, error)
	GetByID(ctx context.Context, id string) (entities.Plan, error)
}

type PlanUseCase struct {
	repo interfaces.IPlanRepository
}

var _ IPlanUseCase = (*PlanUseCase)(nil)

func NewPlanUseCase(repo interfaces.IPlanRepository) *PlanUseCase {
	return &PlanUseCase{repo: repo}
}

// ListActive returns active plans, cheapest first.
func (u *PlanUseCase) ListActive(ctx context.Context) ([]entities.Plan, error) {
	plans, err := u.repo.ListActive(ctx)
	if err != nil {
		log.Printf("[payment][plan] list failed err=%v", err)
		return nil, err
	}

	out := make([]entities.Plan, 0, len(plans))
	for _, p := range plans {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Price.Cmp(out[j].Price); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetByID also returns inactive plans so old subscriptions stay readable.
func (u *PlanUseCase) GetByID(ctx context.Context, id string) (entities.Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Plan{}, ErrInvalidPlanID
	}
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("[payment][plan] get failed plan_id=%s err=%v", id, err)
		return entities.Plan{}, err
	}
	if p.ID == "" {
		return entities.Plan{}, ErrPlanNotFound
	}
	return p, nil
}
