package response

import "associacao_pagamentos/internal/domain/entities"

type PlanResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration string `json:"duration" example:"MONTHLY"`
	Price    string `json:"price" example:"59.90"`
}

func FromPlan(p entities.Plan) PlanResponse {
	return PlanResponse{
		ID:       p.ID,
		Name:     p.Name,
		Duration: string(p.Duration),
		Price:    p.Price.StringFixed(2),
	}
}

func FromPlans(plans []entities.Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, FromPlan(p))
	}
	return out
}
