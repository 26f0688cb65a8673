package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument is the cart-service document shape: one document per cart
// with its lines embedded.
type cartDocument struct {
	ID        int64                `bson:"_id"`
	SessionID string               `bson:"session_id"`
	HubID     int64                `bson:"hub_id"`
	Status    string               `bson:"status"`
	Total     primitive.Decimal128 `bson:"total"`
	UpdatedAt time.Time            `bson:"updated_at"`
	Lines     []lineDocument       `bson:"lines"`
}

type lineDocument struct {
	ID        int64                `bson:"id"`
	ProductID int64                `bson:"product_id"`
	Quantity  int32                `bson:"quantity"`
	LineTotal primitive.Decimal128 `bson:"line_total"`
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetActiveCart(ctx context.Context, sessionID string, hubID int64) (*domain.Cart, error) {
	filter := bson.M{
		"session_id": sessionID,
		"hub_id":     hubID,
		"status":     string(domain.CartStatusActive),
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"lines": 0})

	var doc cartDocument
	if err := m.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get active cart: %w", err)
	}
	return doc.toDomain()
}

func (m *MongoRepository) GetCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	opts := options.FindOne().SetProjection(bson.M{"lines": 0})

	var doc cartDocument
	if err := m.collection.FindOne(ctx, bson.M{"_id": cartID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.toDomain()
}

func (m *MongoRepository) GetCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	var doc cartDocument
	if err := m.collection.FindOne(ctx, bson.M{"_id": cartID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart lines: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		total, err := fromDecimal128(l.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("line %d of cart %d: %w", l.ID, cartID, err)
		}
		lines = append(lines, domain.CartLine{
			ID:        l.ID,
			CartID:    doc.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			LineTotal: total,
		})
	}
	return lines, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "hub_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}

func (d *cartDocument) toDomain() (*domain.Cart, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, fmt.Errorf("cart %d total: %w", d.ID, err)
	}
	return &domain.Cart{
		ID:        d.ID,
		SessionID: d.SessionID,
		HubID:     d.HubID,
		Status:    domain.CartStatus(d.Status),
		Total:     total,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	if v.IsNaN() || v.IsInf() != 0 {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %s", v.String())
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %s: %w", v.String(), err)
	}
	return d, nil
}
