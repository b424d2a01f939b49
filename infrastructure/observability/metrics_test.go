package observability

import (
	"context"
	"testing"

	"sessionbot/config"
	"sessionbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{name: "otel disabled", mutate: func(cfg *config.Config) { cfg.OTelEnabled = false }},
		{name: "exporter none", mutate: func(cfg *config.Config) {
			cfg.OTelEnabled = true
			cfg.OTelExporterType = "none"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewTestConfig()
			tt.mutate(cfg)
			mp := NewMetricsProvider(cfg)

			require.NoError(t, mp.Initialize(context.Background()))
			assert.False(t, mp.isEnabled())

			assert.NotPanics(t, func() {
				mp.RecordPurchase(models.PurchaseSuccess)
				mp.RecordReservationRollback(false)
				mp.RecordPaymentVerified(5000)
				mp.RecordCodeReveal(true)
				mp.RecordEventPublished("number_purchased")
			})
			assert.NoError(t, mp.Shutdown(context.Background()))
		})
	}
}

func TestMetricsProvider_ConsoleExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "console"
	mp := NewMetricsProvider(cfg)

	require.NoError(t, mp.Initialize(context.Background()))
	assert.True(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordPurchase(models.PurchaseInsufficientFunds)
		mp.RecordReservationRollback(true)
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())

	assert.ErrorContains(t, err, "unknown exporter type")
}

func TestMetricsProvider_NilIsNoop(t *testing.T) {
	var mp *MetricsProvider

	assert.NotPanics(t, func() { mp.RecordPurchase(models.PurchaseSuccess) })
}
