package service

import "sessionbot/models"

type noopMetrics struct{}

func (noopMetrics) RecordPurchase(models.PurchaseOutcome) {}
func (noopMetrics) RecordReservationRollback(bool)        {}
func (noopMetrics) RecordPaymentVerified(int64)           {}
func (noopMetrics) RecordCodeReveal(bool)                 {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
