package publisher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

type fakeBot struct {
	calls    int32
	failN    int32 // fail this many calls before succeeding
	permanent bool
}

func (b *fakeBot) SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error) {
	n := atomic.AddInt32(&b.calls, 1)
	if n <= b.failN {
		if b.permanent {
			return nil, errors.New("401 Unauthorized")
		}
		return nil, errors.New("timeout")
	}
	return &tgmodels.Message{ID: int(n)}, nil
}

type fakeStore struct {
	savedSignals int32
	savedAlerts  int32
}

func (s *fakeStore) SaveSignal(ctx context.Context, signal models.Signal) error {
	atomic.AddInt32(&s.savedSignals, 1)
	return nil
}

func (s *fakeStore) SaveExitAlert(ctx context.Context, alert models.ExitAlert) error {
	atomic.AddInt32(&s.savedAlerts, 1)
	return nil
}

func newTestPublisher(bot botClient, store Store, retries int) *Publisher {
	return &Publisher{
		cfg: config.TelegramConfig{
			Enabled:        true,
			BotToken:       "tok",
			ChatID:         123,
			RetryAttempts:  retries,
			RetryBackoff:   time.Millisecond,
			HealthFailures: 3,
		},
		logger: logger.NewLogger("error"),
		store:  store,
		bot:    bot,
		health: newHealth(3),
	}
}

func TestPublisherNotInitializedPersistsPending(t *testing.T) {
	store := &fakeStore{}
	p, err := New(config.TelegramConfig{Enabled: false}, logger.NewLogger("error"), store)
	assert.NoError(t, err)

	signal, err := p.Post(context.Background(), models.Signal{Token: "tok"})
	assert.NoError(t, err)
	assert.True(t, signal.DeliveryPending)
	assert.Equal(t, int32(1), store.savedSignals)
}

func TestPublisherPostSucceedsFirstTry(t *testing.T) {
	bot := &fakeBot{}
	store := &fakeStore{}
	p := newTestPublisher(bot, store, 3)

	signal, err := p.Post(context.Background(), models.Signal{Token: "tok", Symbol: "DOG"})
	assert.NoError(t, err)
	assert.NotEmpty(t, signal.MessageID)
	assert.False(t, signal.DeliveryPending)
	assert.Equal(t, int32(0), store.savedSignals)
	assert.False(t, p.health.isUnhealthy())
}

func TestPublisherRetriesTransientThenSucceeds(t *testing.T) {
	bot := &fakeBot{failN: 2}
	store := &fakeStore{}
	p := newTestPublisher(bot, store, 3)

	signal, err := p.Post(context.Background(), models.Signal{Token: "tok"})
	assert.NoError(t, err)
	assert.NotEmpty(t, signal.MessageID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&bot.calls))
}

func TestPublisherPermanentFailureDoesNotRetry(t *testing.T) {
	bot := &fakeBot{failN: 99, permanent: true}
	store := &fakeStore{}
	p := newTestPublisher(bot, store, 5)

	signal, err := p.Post(context.Background(), models.Signal{Token: "tok"})
	assert.NoError(t, err) // Post itself never errors, it falls back to persistence
	assert.True(t, signal.DeliveryPending)
	assert.Equal(t, int32(1), atomic.LoadInt32(&bot.calls)) // no retry on a permanent failure
	assert.Equal(t, int32(1), store.savedSignals)
}

func TestPublisherExhaustsRetriesAndPersists(t *testing.T) {
	bot := &fakeBot{failN: 99}
	store := &fakeStore{}
	p := newTestPublisher(bot, store, 3)

	signal, err := p.Post(context.Background(), models.Signal{Token: "tok"})
	assert.NoError(t, err)
	assert.True(t, signal.DeliveryPending)
	assert.Equal(t, int32(3), atomic.LoadInt32(&bot.calls))
	assert.Equal(t, int32(1), store.savedSignals)
	assert.Equal(t, 1, p.health.streak()) // one exhausted Post counts as one delivery failure
}

func TestPublisherExitAlertFallsBackWithoutDeliveryPendingField(t *testing.T) {
	bot := &fakeBot{failN: 99}
	store := &fakeStore{}
	p := newTestPublisher(bot, store, 2)

	err := p.PostExitAlert(context.Background(), models.ExitAlert{Token: "tok"})
	assert.NoError(t, err)
	assert.Equal(t, int32(1), store.savedAlerts)
}

func TestClassifyPermanentMarkers(t *testing.T) {
	assert.False(t, classify(errors.New("401 Unauthorized")).transient)
	assert.False(t, classify(errors.New("Bad Request: chat not found")).transient)
	assert.False(t, classify(errors.New("Forbidden: bot was blocked by the user")).transient)
	assert.True(t, classify(errors.New("dial tcp: connection timeout")).transient)
	assert.False(t, classify(nil).transient)
}
