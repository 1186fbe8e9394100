package classifier

import (
	"context"

	"polyclassify/internal/config"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"

	log "github.com/sirupsen/logrus"
)

// usageRecorder prices token counts reported by a provider and hands them to the cost tracker.
type usageRecorder struct {
	provider    string
	costTracker costtracker.CostTracker
	pricing     map[string]config.PricingInfo // keyed by model name
}

func (u usageRecorder) record(ctx context.Context, model string, inputTokens, outputTokens int) {
	if u.costTracker == nil || inputTokens+outputTokens == 0 {
		return
	}

	var cost float64
	if priceInfo, ok := u.pricing[model]; ok {
		cost = float64(inputTokens)*priceInfo.InputPerToken + float64(outputTokens)*priceInfo.OutputPerToken
	} else {
		log.Debugf("Pricing info not found for %s model '%s'. Recording tokens without cost.", u.provider, model)
	}

	event := costtracker.CostEvent{
		Operation:    models.ServiceTypeClassification,
		ProviderName: u.provider,
		ModelName:    model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		AmountUSD:    cost,
	}
	if err := u.costTracker.RecordCost(ctx, event); err != nil {
		log.Errorf("Failed to record AI usage for classification: %v", err)
		return
	}
	log.Debugf("Recorded AI usage: Provider=%s, Model=%s, InputTokens=%d, OutputTokens=%d, Cost=%.8f",
		u.provider, model, inputTokens, outputTokens, cost)
}
