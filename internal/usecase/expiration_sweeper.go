package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"associacao_pagamentos/internal/usecase/interfaces"
)

const defaultSweepBatchSize int32 = 100

// ExpirationSweeper persists PENDING -> EXPIRED for payments past expires_at,
// so reports that filter on the stored status agree with polling.
type ExpirationSweeper struct {
	repo      interfaces.IPaymentRepository
	metrics   interfaces.IPaymentMetrics
	interval  time.Duration
	batchSize int32
	now       func() time.Time
}

func NewExpirationSweeper(repo interfaces.IPaymentRepository, metrics interfaces.IPaymentMetrics, interval time.Duration, batchSize int32) *ExpirationSweeper {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ExpirationSweeper{
		repo:      repo,
		metrics:   metrics,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper and Run returns immediately.
func (s *ExpirationSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Printf("[payment][sweeper] disabled")
		return
	}
	log.Printf("[payment][sweeper] started interval=%s batch_size=%d", s.interval, s.batchSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[payment][sweeper] stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Printf("[payment][sweeper] sweep failed err=%v", err)
			}
		}
	}
}

// SweepOnce expires one batch and returns how many payments it moved.
// Payments that left PENDING in the meantime are skipped.
func (s *ExpirationSweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	pending, err := s.repo.ListExpiredPending(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			break
		}
		if !p.ExpiresAt.Before(now) {
			continue
		}
		err := s.repo.MarkExpired(ctx, p.ID, now)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, interfaces.ErrConditionalCheckFailed):
			log.Printf("[payment][sweeper] skip payment_id=%s no longer pending", p.ID)
		default:
			log.Printf("[payment][sweeper] mark expired failed payment_id=%s err=%v", p.ID, err)
		}
	}

	if expired > 0 {
		s.metrics.AddPaymentsExpired(expired)
		log.Printf("[payment][sweeper] expired=%d", expired)
	}
	return expired, nil
}
