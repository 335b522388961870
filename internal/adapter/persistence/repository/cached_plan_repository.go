package repository

import (
	"context"
	"log"

	"associacao_pagamentos/internal/domain/entities"
	"associacao_pagamentos/internal/usecase/interfaces"
)

// CachedPlanRepository is a read-through cache in front of the plan table.
// Cache failures are logged and the table is read instead.
type CachedPlanRepository struct {
	repo  interfaces.IPlanRepository
	cache PlanCache
}

var _ interfaces.IPlanRepository = (*CachedPlanRepository)(nil)

func NewCachedPlanRepository(repo interfaces.IPlanRepository, cache PlanCache) *CachedPlanRepository {
	return &CachedPlanRepository{repo: repo, cache: cache}
}

func (r *CachedPlanRepository) GetByID(ctx context.Context, id string) (entities.Plan, error) {
	p, ok, err := r.cache.GetPlan(ctx, id)
	if err != nil {
		log.Printf("[payment][cache] plan read failed plan_id=%s err=%v", id, err)
	}
	if ok {
		return p, nil
	}

	p, err = r.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Plan{}, err
	}
	// misses are not cached so a newly published plan shows up at once
	if p.ID != "" {
		if err := r.cache.SetPlan(ctx, p); err != nil {
			log.Printf("[payment][cache] plan write failed plan_id=%s err=%v", id, err)
		}
	}
	return p, nil
}

func (r *CachedPlanRepository) ListActive(ctx context.Context) ([]entities.Plan, error) {
	plans, ok, err := r.cache.GetActivePlans(ctx)
	if err != nil {
		log.Printf("[payment][cache] active plans read failed err=%v", err)
	}
	if ok && len(plans) > 0 {
		return plans, nil
	}

	plans, err = r.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if err := r.cache.SetActivePlans(ctx, plans); err != nil {
			log.Printf("[payment][cache] active plans write failed err=%v", err)
		}
	}
	return plans, nil
}
