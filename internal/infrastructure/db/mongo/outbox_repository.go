package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jingally/booking-system/internal/core/domain"
)

const (
	collectionOutbox = "notification_outbox"
	sentRetention    = 7 * 24 * time.Hour
)

// OutboxRepository stores rendered notifications until the relay delivers them.
type OutboxRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{col: db.Collection(collectionOutbox), now: time.Now}
}

type outboxDoc struct {
	ID             string     `bson:"_id"`
	Kind           string     `bson:"kind"`
	ShipmentID     string     `bson:"shipment_id,omitempty"`
	TrackingNumber string     `bson:"tracking_number,omitempty"`
	Recipient      string     `bson:"recipient"`
	Subject        string     `bson:"subject"`
	HTMLBody       string     `bson:"html_body"`
	State          string     `bson:"state"`
	Attempts       int        `bson:"attempts"`
	LastError      string     `bson:"last_error,omitempty"`
	NextAttemptAt  time.Time  `bson:"next_attempt_at"`
	LockedUntil    time.Time  `bson:"locked_until"`
	CreatedAt      time.Time  `bson:"created_at"`
	SentAt         *time.Time `bson:"sent_at,omitempty"`
}

func (d outboxDoc) toDomain() *domain.OutboxMessage {
	return &domain.OutboxMessage{
		ID:             d.ID,
		Kind:           domain.NotificationKind(d.Kind),
		ShipmentID:     d.ShipmentID,
		TrackingNumber: d.TrackingNumber,
		Recipient:      d.Recipient,
		Subject:        d.Subject,
		HTMLBody:       d.HTMLBody,
		State:          domain.OutboxState(d.State),
		Attempts:       d.Attempts,
		LastError:      d.LastError,
		NextAttemptAt:  d.NextAttemptAt.UTC(),
		LockedUntil:    d.LockedUntil.UTC(),
		CreatedAt:      d.CreatedAt.UTC(),
		SentAt:         utcPtr(d.SentAt),
	}
}

func (r *OutboxRepository) Save(ctx context.Context, msg *domain.OutboxMessage) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, outboxDoc{
		ID:             msg.ID,
		Kind:           string(msg.Kind),
		ShipmentID:     msg.ShipmentID,
		TrackingNumber: msg.TrackingNumber,
		Recipient:      msg.Recipient,
		Subject:        msg.Subject,
		HTMLBody:       msg.HTMLBody,
		State:          string(msg.State),
		Attempts:       msg.Attempts,
		NextAttemptAt:  msg.NextAttemptAt,
		CreatedAt:      msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("save outbox message: %w", err)
	}
	return nil
}

// claimFilter matches messages that are due, plus processing messages whose
// lease expired because a previous relay died mid-delivery.
func claimFilter(now time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"state": string(domain.OutboxPending), "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": string(domain.OutboxProcessing), "locked_until": bson.M{"$lte": now}},
	}}
}

// Claim leases up to limit due messages, oldest due first. Each message is
// claimed with its own FindOneAndUpdate so concurrent relays never share one.
func (r *OutboxRepository) Claim(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now().UTC()
	update := bson.M{"$set": bson.M{
		"state":        string(domain.OutboxProcessing),
		"locked_until": now.Add(lease),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	claimed := make([]*domain.OutboxMessage, 0, limit)
	for len(claimed) < limit {
		var doc outboxDoc
		err := r.col.FindOneAndUpdate(ctx, claimFilter(now), update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("claim outbox message: %w", err)
		}
		claimed = append(claimed, doc.toDomain())
	}
	return claimed, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"state": string(domain.OutboxSent), "sent_at": now},
		"$inc": bson.M{"attempts": 1},
	})
	if err != nil {
		return fmt.Errorf("mark outbox message sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox message %s not found", id)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string, nextAttemptAt time.Time, dead bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	state := domain.OutboxPending
	if dead {
		state = domain.OutboxDead
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"state":           string(state),
			"last_error":      reason,
			"next_attempt_at": nextAttemptAt.UTC(),
			"locked_until":    time.Time{},
		},
		"$inc": bson.M{"attempts": 1},
	})
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox message %s not found", id)
	}
	return nil
}

// EnsureIndexes creates the claim index and the TTL index that expires
// delivered messages.
func (r *OutboxRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "locked_until", Value: 1}}},
		{Keys: bson.D{{Key: "shipment_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{
			Keys:    bson.D{{Key: "sent_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sentRetention.Seconds())),
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
