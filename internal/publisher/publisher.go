// Package publisher formats and posts conviction signals and exit alerts
// to a single Telegram chat, with bounded retry, rolling health tracking,
// and fallback persistence when delivery is exhausted.
package publisher

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/internal/sentinelerr"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

// botClient is the subset of *bot.Bot the publisher drives, narrowed so
// tests can substitute a fake.
type botClient interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*tgmodels.Message, error)
}

// Store persists a signal when delivery is exhausted, for later recovery.
type Store interface {
	SaveSignal(ctx context.Context, signal models.Signal) error
	SaveExitAlert(ctx context.Context, alert models.ExitAlert) error
}

// Publisher posts one message per signal and one per exit alert, never
// more than once for the same event.
type Publisher struct {
	cfg    config.TelegramConfig
	logger *logger.Logger
	store  Store
	bot    botClient
	health *health
}

// New builds a Publisher. If cfg.Enabled is false or credentials are
// missing, bot construction is skipped and every Post/PostExitAlert call
// gates at warning level instead of posting.
func New(cfg config.TelegramConfig, log *logger.Logger, store Store) (*Publisher, error) {
	p := &Publisher{cfg: cfg, logger: log, store: store, health: newHealth(maxInt(cfg.HealthFailures, 1))}

	if !p.initialized() {
		return p, nil
	}

	b, err := tgbot.New(cfg.BotToken)
	if err != nil {
		return nil, sentinelerr.New(sentinelerr.KindConfiguration, "publisher.New", "constructing telegram bot", err)
	}
	p.bot = b
	return p, nil
}

func (p *Publisher) initialized() bool {
	return p.cfg.Enabled && p.cfg.BotToken != "" && p.cfg.ChatID != 0
}

func (p *Publisher) missingFields() []string {
	var missing []string
	if !p.cfg.Enabled {
		missing = append(missing, "telegram.enabled")
	}
	if p.cfg.BotToken == "" {
		missing = append(missing, "telegram.bot_token")
	}
	if p.cfg.ChatID == 0 {
		missing = append(missing, "telegram.chat_id")
	}
	return missing
}

// Post formats and sends a signal message, making up to cfg.RetryAttempts
// attempts on transient failures with linear backoff. On exhaustion the signal
// is persisted with DeliveryPending=true. Returns the signal as actually
// delivered (MessageID set on success).
func (p *Publisher) Post(ctx context.Context, signal models.Signal) (models.Signal, error) {
	if !p.initialized() {
		p.logger.Warning("publisher_not_initialized", map[string]interface{}{
			"missing": p.missingFields(),
			"token":   string(signal.Token),
		})
		return p.persistPending(ctx, signal)
	}

	text := format(signal)
	messageID, err := p.send(ctx, text)
	if err == nil {
		p.health.recordSuccess()
		signal.MessageID = messageID
		return signal, nil
	}

	if justWentUnhealthy := p.health.recordFailure(); justWentUnhealthy {
		p.logger.Error("publisher_unhealthy", err, map[string]interface{}{
			"consecutive_fails": p.health.streak(),
		})
	}

	p.logger.Error("publisher_post_exhausted", err, map[string]interface{}{
		"token": string(signal.Token),
	})
	return p.persistPending(ctx, signal)
}

// PostExitAlert formats and sends an exit alert with the same retry policy
// as Post. On exhaustion, or when the publisher is not initialized, the
// alert is saved through the store instead; the alert has no
// delivery-pending marker.
func (p *Publisher) PostExitAlert(ctx context.Context, alert models.ExitAlert) error {
	if !p.initialized() {
		p.logger.Warning("publisher_not_initialized", map[string]interface{}{
			"missing": p.missingFields(),
			"token":   string(alert.Token),
		})
		return p.store.SaveExitAlert(ctx, alert)
	}

	text := formatExitAlert(alert)
	_, err := p.send(ctx, text)
	if err == nil {
		p.health.recordSuccess()
		return nil
	}
	p.health.recordFailure()
	p.logger.Error("exit_alert_post_exhausted", err, map[string]interface{}{
		"token": string(alert.Token),
	})
	return p.store.SaveExitAlert(ctx, alert)
}

func (p *Publisher) persistPending(ctx context.Context, signal models.Signal) (models.Signal, error) {
	signal.DeliveryPending = true
	if err := p.store.SaveSignal(ctx, signal); err != nil {
		return signal, sentinelerr.New(sentinelerr.KindPublisherUnavailable, "publisher.Post", "persisting delivery-pending signal", err)
	}
	return signal, nil
}

// send makes up to cfg.RetryAttempts attempts on transient failures with
// linear backoff, returning the delivered message ID on success.
func (p *Publisher) send(ctx context.Context, text string) (string, error) {
	var lastErr error
	attempts := maxInt(p.cfg.RetryAttempts, 1)
	backoff := p.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	disable := true
	for attempt := 1; attempt <= attempts; attempt++ {
		msg, err := p.bot.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    p.cfg.ChatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
			LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
				IsDisabled: &disable,
			},
		})
		if err == nil {
			return messageID(msg), nil
		}
		lastErr = err
		if !classify(err).transient {
			break
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
	}
	return "", lastErr
}

func messageID(msg *tgmodels.Message) string {
	if msg == nil {
		return ""
	}
	return strconv.Itoa(msg.ID)
}

// permanentMarkers are substrings of Telegram Bot API error descriptions
// that indicate a non-retryable failure: bad credentials, bad chat id, or
// a message that will never fit regardless of how many times it's resent.
var permanentMarkers = []string{
	"unauthorized",
	"chat not found",
	"bot was blocked",
	"message is too long",
	"chat_id is empty",
	"wrong remote file",
}

type classification struct {
	transient bool
}

// classify distinguishes transient delivery failures (network timeout,
// rate limit) from permanent ones (bad token, bad chat id, message too
// long) so send() knows whether to retry.
func classify(err error) classification {
	if err == nil {
		return classification{transient: false}
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(lower, marker) {
			return classification{transient: false}
		}
	}
	return classification{transient: true}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
