package sentinelerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindTransient, "fetcher.GetTokenData", "dex aggregator request failed", cause)

	assert.Contains(t, err.Error(), "fetcher.GetTokenData")
	assert.Contains(t, err.Error(), "dex aggregator request failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesWrappedKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KindConfiguration, "config.Load", "missing bot token", nil))

	assert.True(t, Is(err, KindConfiguration))
	assert.False(t, Is(err, KindTransient))
	assert.False(t, Is(errors.New("plain error"), KindTransient))
}

func TestRetryableOnlyForTransientAndRateLimited(t *testing.T) {
	t.Run("transient is retryable", func(t *testing.T) {
		assert.True(t, Retryable(New(KindTransient, "op", "msg", nil)))
	})
	t.Run("rate limited is retryable", func(t *testing.T) {
		assert.True(t, Retryable(New(KindRateLimited, "op", "msg", nil)))
	})
	t.Run("permanent is not retryable", func(t *testing.T) {
		assert.False(t, Retryable(New(KindPermanent, "op", "msg", nil)))
	})
	t.Run("plain error is not retryable", func(t *testing.T) {
		assert.False(t, Retryable(errors.New("boom")))
	})
}

func TestKindStringCoversEveryKind(t *testing.T) {
	kinds := []Kind{
		KindTransient, KindRateLimited, KindPermanent, KindDataQuality,
		KindConfiguration, KindPublisherUnavailable, KindInvariantViolation,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
	}
}
