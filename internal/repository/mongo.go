package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/product-catalog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	maxUpdateAttempts  = 5
)

// ErrConflict is returned when an optimistic update keeps losing against
// concurrent writers.
var ErrConflict = errors.New("record was modified concurrently")

// NewMongoStore keeps reviews embedded in their product document. Product
// updates only $set scalar fields, so they never clobber reviews pushed in
// the meantime; both kinds of update are conditioned on the updatedAt value
// they read.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	coll := db.Collection(productsCollection)
	return &Store{
		Products: &mongoProductRepository{coll: coll},
		Reviews:  &mongoReviewRepository{coll: coll},
		Driver:   "mongo",
		closer: func(ctx context.Context) error {
			if client == nil {
				return nil
			}
			return client.Disconnect(ctx)
		},
	}
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}

func productFilter(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	return query
}

// productFields lists everything an update may change; reviews are owned
// by the review repository.
func productFields(p *models.Product) bson.M {
	return bson.M{
		"name":        p.Name,
		"description": p.Description,
		"brand":       p.Brand,
		"imageUrl":    p.ImageURL,
		"price":       p.Price,
		"category":    p.Category,
		"updatedAt":   p.UpdatedAt,
	}
}

type mongoProductRepository struct {
	coll *mongo.Collection
}

func (r *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	doc := *product
	if doc.Reviews == nil {
		doc.Reviews = []models.Review{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *mongoProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, productFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	withEmptyReviews(products)
	return products, nil
}

func (r *mongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return findProduct(ctx, r.coll, id)
}

func findProduct(ctx context.Context, coll *mongo.Collection, id string) (*models.Product, error) {
	var product models.Product
	if err := coll.FindOne(ctx, byID(id)).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	return &product, nil
}

func (r *mongoProductRepository) Update(ctx context.Context, id string, mutate ProductMutator) (*models.Product, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		read := current.UpdatedAt
		updated := *current
		if err := mutate(&updated); err != nil {
			return nil, err
		}
		updated.ID = id

		result, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": id, "updatedAt": read},
			bson.M{"$set": productFields(&updated)},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
		if result.MatchedCount == 1 {
			return r.GetByID(ctx, id)
		}
	}
	return nil, ErrConflict
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

type mongoReviewRepository struct {
	coll *mongo.Collection
}

func (r *mongoReviewRepository) Create(ctx context.Context, productID string, review *models.Review) error {
	review.ProductID = productID

	result, err := r.coll.UpdateOne(ctx, byID(productID), bson.M{"$push": bson.M{"reviews": review}})
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	product, err := findProduct(ctx, r.coll, productID)
	if err != nil {
		return nil, err
	}
	return product.Reviews, nil
}

func (r *mongoReviewRepository) GetByID(ctx context.Context, productID, reviewID string) (*models.Review, error) {
	product, err := findProduct(ctx, r.coll, productID)
	if err != nil {
		return nil, err
	}
	return findReview(product.Reviews, reviewID)
}

func findReview(reviews []models.Review, reviewID string) (*models.Review, error) {
	for i := range reviews {
		if reviews[i].ID == reviewID {
			return &reviews[i], nil
		}
	}
	return nil, ErrReviewNotFound
}

func (r *mongoReviewRepository) Update(ctx context.Context, productID, reviewID string, mutate ReviewMutator) (*models.Review, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.GetByID(ctx, productID, reviewID)
		if err != nil {
			return nil, err
		}

		read := current.UpdatedAt
		updated := *current
		if err := mutate(&updated); err != nil {
			return nil, err
		}
		updated.ID = reviewID
		updated.ProductID = productID

		result, err := r.coll.UpdateOne(ctx,
			bson.M{
				"_id":     productID,
				"reviews": bson.M{"$elemMatch": bson.M{"_id": reviewID, "updatedAt": read}},
			},
			bson.M{"$set": bson.M{"reviews.$": updated}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
		if result.MatchedCount == 1 {
			return &updated, nil
		}
	}
	return nil, ErrConflict
}

func (r *mongoReviewRepository) Delete(ctx context.Context, productID, reviewID string) error {
	result, err := r.coll.UpdateOne(ctx,
		byID(productID),
		bson.M{"$pull": bson.M{"reviews": bson.M{"_id": reviewID}}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	if result.ModifiedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}
