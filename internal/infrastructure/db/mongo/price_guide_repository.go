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
)

const collectionPriceGuides = "price_guides"

type PriceGuideRepository struct {
	col *mongo.Collection
}

func NewPriceGuideRepository(db *mongo.Database) *PriceGuideRepository {
	return &PriceGuideRepository{col: db.Collection(collectionPriceGuides)}
}

type priceGuideDoc struct {
	ID          string               `bson:"_id"`
	GuideNumber string               `bson:"guide_number"`
	GuideName   string               `bson:"guide_name"`
	Price       primitive.Decimal128 `bson:"price"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func (d priceGuideDoc) toDomain() *domain.PriceGuide {
	return &domain.PriceGuide{
		ID:          d.ID,
		GuideNumber: d.GuideNumber,
		GuideName:   d.GuideName,
		Price:       fromDecimal128(d.Price),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *PriceGuideRepository) Create(ctx context.Context, g *domain.PriceGuide) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, priceGuideDoc{
		ID:          g.ID,
		GuideNumber: g.GuideNumber,
		GuideName:   g.GuideName,
		Price:       toDecimal128(g.Price),
		CreatedAt:   g.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateGuideNumber
		}
		return fmt.Errorf("insert price guide: %w", err)
	}
	return nil
}

func (r *PriceGuideRepository) FindByID(ctx context.Context, id string) (*domain.PriceGuide, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc priceGuideDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPriceGuideNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns every guide ordered by price.
func (r *PriceGuideRepository) List(ctx context.Context) ([]*domain.PriceGuide, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find price guides: %w", err)
	}

	var docs []priceGuideDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode price guides: %w", err)
	}
	guides := make([]*domain.PriceGuide, 0, len(docs))
	for _, d := range docs {
		guides = append(guides, d.toDomain())
	}
	return guides, nil
}

func (r *PriceGuideRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guide_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
