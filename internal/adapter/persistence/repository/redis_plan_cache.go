package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"associacao_pagamentos/internal/domain/entities"

	"github.com/redis/go-redis/v9"
)

const (
	planKeyPrefix   = "plan:"
	activePlansKey  = "plans:active"
	defaultCacheTTL = 15 * time.Minute
)

// PlanCache stores plan catalog reads. A miss is (zero, false, nil).
type PlanCache interface {
	GetPlan(ctx context.Context, id string) (entities.Plan, bool, error)
	SetPlan(ctx context.Context, p entities.Plan) error
	GetActivePlans(ctx context.Context) ([]entities.Plan, bool, error)
	SetActivePlans(ctx context.Context, plans []entities.Plan) error
}

type RedisPlanCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ PlanCache = (*RedisPlanCache)(nil)

func NewRedisPlanCache(client redis.Cmdable, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

// ConnectRedis opens a client and checks it answers PING.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("[payment][cache] connected to redis addr=%s", addr)
	return client, nil
}

func (c *RedisPlanCache) GetPlan(ctx context.Context, id string) (entities.Plan, bool, error) {
	var p entities.Plan
	ok, err := c.get(ctx, planKeyPrefix+id, &p)
	return p, ok, err
}

func (c *RedisPlanCache) SetPlan(ctx context.Context, p entities.Plan) error {
	return c.set(ctx, planKeyPrefix+p.ID, p)
}

func (c *RedisPlanCache) GetActivePlans(ctx context.Context) ([]entities.Plan, bool, error) {
	var plans []entities.Plan
	ok, err := c.get(ctx, activePlansKey, &plans)
	return plans, ok, err
}

func (c *RedisPlanCache) SetActivePlans(ctx context.Context, plans []entities.Plan) error {
	return c.set(ctx, activePlansKey, plans)
}

func (c *RedisPlanCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisPlanCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}
