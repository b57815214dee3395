package ingress

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// CallTracker is the subset of the tracker the Telegram-call processor
// admits events into.
type CallTracker interface {
	AdmitTelegramCall(ctx context.Context, event models.TelegramCallEvent, now time.Time)
}

// CallIndex records a mention for the rolling-window call count the
// conviction engine reads from.
type CallIndex interface {
	Record(event models.TelegramCallEvent)
}

// CallStore persists every distinct mention for audit.
type CallStore interface {
	RecordTelegramCall(ctx context.Context, event models.TelegramCallEvent) error
}

// TelegramCallProcessor admits third-party group mentions into the
// tracker, the call index, and the durable telegram_calls log.
type TelegramCallProcessor struct {
	tracker CallTracker
	calls   CallIndex
	store   CallStore
}

// NewTelegramCallProcessor builds a TelegramCallProcessor.
func NewTelegramCallProcessor(tracker CallTracker, calls CallIndex, store CallStore) *TelegramCallProcessor {
	return &TelegramCallProcessor{tracker: tracker, calls: calls, store: store}
}

func (p *TelegramCallProcessor) Name() string { return "telegram_call_processor" }

func (p *TelegramCallProcessor) Process(ctx context.Context, values map[string]interface{}) error {
	event, err := decodeTelegramCallEvent(values)
	if err != nil {
		return err
	}

	now := time.Now()
	p.tracker.AdmitTelegramCall(ctx, event, now)
	p.calls.Record(event)
	return p.store.RecordTelegramCall(ctx, event)
}

func decodeTelegramCallEvent(values map[string]interface{}) (models.TelegramCallEvent, error) {
	token, ok := stringField(values, "token")
	if !ok {
		return models.TelegramCallEvent{}, fmt.Errorf("telegram_call message missing token")
	}
	groupID, ok := stringField(values, "group_id")
	if !ok {
		return models.TelegramCallEvent{}, fmt.Errorf("telegram_call message missing group_id")
	}
	groupName, _ := stringField(values, "group_name")
	messageID, _ := stringField(values, "message_id")
	ts, _ := stringField(values, "timestamp")

	return models.TelegramCallEvent{
		Token:     models.TokenAddress(token),
		GroupID:   groupID,
		GroupName: groupName,
		MessageID: messageID,
		Timestamp: parseTimestamp(ts),
	}, nil
}
