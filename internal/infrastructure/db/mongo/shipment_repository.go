package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

const collectionShipments = "shipments"

type ShipmentRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments), now: time.Now}
}

// Create inserts a new shipment document. The unique tracking number index
// turns a collision into domain.ErrTrackingConflict.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toShipmentDoc(s)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTrackingConflict
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string, scope ports.Scope) (*domain.Shipment, error) {
	return r.findOne(ctx, scopeFilter(bson.M{"_id": id}, scope))
}

// FindByTrackingNumber is unscoped: tracking numbers are public lookups.
func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"tracking_number": trackingNumber})
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc shipmentDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns one page of shipments, newest first, with the total match count.
func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := scopeFilter(bson.M{}, f.Scope)
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find shipments: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]*domain.Shipment, 0, f.Limit)
	for cur.Next(ctx) {
		var doc shipmentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode shipment: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update writes every non-nil patch field in a single FindOneAndUpdate and
// returns the document as stored afterwards.
func (r *ShipmentRepository) Update(ctx context.Context, id string, scope ports.Scope, patch ports.ShipmentPatch) (*domain.Shipment, error) {
	update := bson.M{"$set": patchSet(patch, r.now().UTC())}
	return r.findOneAndUpdate(ctx, scopeFilter(bson.M{"_id": id}, scope), update)
}

// AppendImages pushes urls to the end of the images array in one operation.
func (r *ShipmentRepository) AppendImages(ctx context.Context, id string, scope ports.Scope, urls []string) (*domain.Shipment, error) {
	update := bson.M{
		"$push": bson.M{"images": bson.M{"$each": urls}},
		"$set":  bson.M{"updated_at": r.now().UTC()},
	}
	return r.findOneAndUpdate(ctx, scopeFilter(bson.M{"_id": id}, scope), update)
}

func (r *ShipmentRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc shipmentDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	return doc.toDomain(), nil
}

// Stats counts shipments per dashboard bucket and sums the price of paid ones.
func (r *ShipmentRepository) Stats(ctx context.Context) (*ports.ShipmentStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"total":     bson.A{bson.M{"$count": "n"}},
			"pending":   bson.A{bson.M{"$match": bson.M{"status": string(domain.StatusPending)}}, bson.M{"$count": "n"}},
			"delivered": bson.A{bson.M{"$match": bson.M{"status": string(domain.StatusDelivered)}}, bson.M{"$count": "n"}},
			"cancelled": bson.A{bson.M{"$match": bson.M{"status": string(domain.StatusCancelled)}}, bson.M{"$count": "n"}},
			"revenue": bson.A{
				bson.M{"$match": bson.M{"payment_status": string(domain.PaymentPaid)}},
				bson.M{"$group": bson.M{"_id": nil, "sum": bson.M{"$sum": "$price"}}},
			},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	defer cur.Close(ctx)

	type counter struct {
		N int64 `bson:"n"`
	}
	type sum struct {
		Sum primitive.Decimal128 `bson:"sum"`
	}
	var facets []struct {
		Total     []counter `bson:"total"`
		Pending   []counter `bson:"pending"`
		Delivered []counter `bson:"delivered"`
		Cancelled []counter `bson:"cancelled"`
		Revenue   []sum     `bson:"revenue"`
	}
	if err := cur.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	stats := &ports.ShipmentStats{}
	if len(facets) == 0 {
		return stats, nil
	}
	first := func(c []counter) int64 {
		if len(c) == 0 {
			return 0
		}
		return c[0].N
	}
	f := facets[0]
	stats.Total = first(f.Total)
	stats.Pending = first(f.Pending)
	stats.Delivered = first(f.Delivered)
	stats.Cancelled = first(f.Cancelled)
	if len(f.Revenue) > 0 {
		stats.Revenue = fromDecimal128(f.Revenue[0].Sum)
	}
	return stats, nil
}

// EnsureIndexes creates the indexes of the shipments collection.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
