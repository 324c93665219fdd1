package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/outbox"
)

type objectDestroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// Consumer watches proof events for files that no longer back a proof and
// destroys them in the media store. Removal events carry the deleted proof's
// public id; replacement events carry the public id the new file displaced.
type Consumer struct {
	store        objectDestroyer
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer wires the dependencies required for orphaned file cleanup.
func NewConsumer(store objectDestroyer, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if subscription == nil {
		return nil, errors.New("cleanup subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		store:        store,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

type filePayload struct {
	ProofID          string `json:"proof_id"`
	OrderID          string `json:"order_id"`
	FilePublicID     string `json:"file_public_id"`
	ReplacedPublicID string `json:"replaced_public_id"`
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
		"event_id":   msg.Attributes["event_id"],
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != enums.EventProofRemoved && eventType != enums.EventProofReplaced {
		c.logg.Info(logCtx, "skipping event without file cleanup")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		fields["payload_preview"] = previewBytes(msg.Data, 800)
		logCtx = c.logg.WithFields(ctx, fields)
		c.logg.Error(logCtx, "failed to unmarshal envelope", err)
		return processResult{ack: true}
	}

	var payload filePayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal event payload", err)
		return processResult{ack: true}
	}

	publicID := payload.FilePublicID
	if eventType == enums.EventProofReplaced {
		publicID = payload.ReplacedPublicID
	}
	if strings.TrimSpace(publicID) == "" {
		c.logg.Error(logCtx, "event payload missing public id", fmt.Errorf("empty public id"))
		return processResult{ack: true}
	}

	fields["public_id"] = publicID
	fields["proof_id"] = payload.ProofID
	logCtx = c.logg.WithFields(ctx, fields)

	if err := c.store.Destroy(ctx, publicID); err != nil {
		c.logg.Error(logCtx, "failed to destroy orphaned file", err)
		if isTransient(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "orphaned file destroyed")
	return processResult{ack: true}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pkgerrors.Retryable(err) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func previewBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
