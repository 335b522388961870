package usecase

import "associacao_pagamentos/internal/usecase/interfaces"

type nopMetrics struct{}

var _ interfaces.IPaymentMetrics = nopMetrics{}

func (nopMetrics) IncChargeCreated(string)  {}
func (nopMetrics) IncChargeFailed(string)   {}
func (nopMetrics) IncWebhookOutcome(string) {}
func (nopMetrics) AddPaymentsExpired(int)   {}
