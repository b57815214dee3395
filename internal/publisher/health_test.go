package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthTransition(t *testing.T) {
	h := newHealth(3)

	assert.False(t, h.recordFailure())
	assert.False(t, h.recordFailure())
	assert.True(t, h.recordFailure()) // crosses the threshold on the third
	assert.True(t, h.isUnhealthy())
	assert.Equal(t, 3, h.streak())

	// Already unhealthy: further failures don't re-trigger the transition.
	assert.False(t, h.recordFailure())
}

func TestHealthRecoversOnSuccess(t *testing.T) {
	h := newHealth(2)
	h.recordFailure()
	h.recordFailure()
	assert.True(t, h.isUnhealthy())

	h.recordSuccess()
	assert.False(t, h.isUnhealthy())
	assert.Equal(t, 0, h.streak())
}
