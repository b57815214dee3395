package engine

import (
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// OutcomeClass is a predicted outcome bucket for a token, in ascending
// order of expected return.
type OutcomeClass string

const (
	OutcomeRug    OutcomeClass = "rug"
	Outcome2x     OutcomeClass = "2x"
	Outcome10x    OutcomeClass = "10x"
	Outcome50x    OutcomeClass = "50x"
	Outcome100x   OutcomeClass = "100x+"
)

// Prediction is one ML predictor output: a class label and the model's
// confidence in it.
type Prediction struct {
	Class      OutcomeClass
	Confidence float64
}

// FeatureVector is the subset of tracked-token and snapshot state the
// predictor consumes. It is built fresh per poll so predictors never see
// stale or partially-updated state.
type FeatureVector struct {
	BuysToSellsRatio float64
	VolumeToMcap     float64
	HolderCount      int
	Top10Pct         float64
	BondingProgress  float64
	DistinctKOLs     int
	AgeSeconds        float64
}

// Predictor is the ML-bonus dependency Phase 4 calls when loaded. A
// deployment without a trained model wires NoopPredictor instead.
type Predictor interface {
	Predict(features FeatureVector) (Prediction, bool)
}

// NoopPredictor always declines to predict. Startup wires it when
// ENABLE_ML_PREDICTIONS is on; with the flag off no predictor is wired.
type NoopPredictor struct{}

func (NoopPredictor) Predict(FeatureVector) (Prediction, bool) { return Prediction{}, false }

// buildFeatureVector assembles the predictor's input from current state.
func buildFeatureVector(token *models.TrackedToken, snap models.TokenSnapshot, now time.Time) FeatureVector {
	var buysToSells float64
	if snap.Sells24h > 0 {
		buysToSells = float64(snap.Buys24h) / float64(snap.Sells24h)
	}
	var volumeToMcap float64
	if snap.MarketCap > 0 {
		volumeToMcap = snap.Volume24h / snap.MarketCap
	}
	return FeatureVector{
		BuysToSellsRatio: buysToSells,
		VolumeToMcap:     volumeToMcap,
		HolderCount:      snap.HolderCount,
		Top10Pct:         snap.Top10Pct,
		BondingProgress:  snap.BondingProgressPct,
		DistinctKOLs:     token.DistinctKOLCount(),
		AgeSeconds:       token.Age(now).Seconds(),
	}
}

// phase4ML applies the ML-prediction bonus/penalty when a predictor is
// loaded and willing to predict.
func phase4ML(b *models.ScoreBreakdown, predictor Predictor, token *models.TrackedToken, snap models.TokenSnapshot) {
	features := buildFeatureVector(token, snap, b.EvaluatedAt)
	prediction, ok := predictor.Predict(features)
	if !ok {
		return
	}

	switch prediction.Class {
	case Outcome100x:
		switch {
		case prediction.Confidence >= 0.7:
			b.Add("ml_prediction", 20)
		case prediction.Confidence >= 0.5:
			b.Add("ml_prediction", 15)
		default:
			b.Add("ml_prediction", 10)
		}
	case Outcome50x:
		b.Add("ml_prediction", linearBand(prediction.Confidence, 0, 1, 10, 15))
	case Outcome10x:
		b.Add("ml_prediction", linearBand(prediction.Confidence, 0, 1, 5, 10))
	case Outcome2x:
		b.Add("ml_prediction", 0)
	case OutcomeRug:
		if prediction.Confidence >= 0.5 {
			b.Add("ml_prediction", -30)
		}
	}
}
