package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/princeprakhar/product-catalog/internal/database"
	"github.com/princeprakhar/product-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Set CATALOG_TEST_MONGO_URI to run against a real server, e.g.
// mongodb://localhost:27017. Each subtest gets its own database.
const mongoURIEnv = "CATALOG_TEST_MONGO_URI"

func TestMongoStoreBehaviour(t *testing.T) {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoURIEnv)
	}

	testStoreBehaviour(t, func(t *testing.T) *Store {
		ctx := context.Background()
		name := fmt.Sprintf("catalog_test_%d", time.Now().UnixNano())

		client, db, err := database.InitMongo(ctx, uri, name)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = client.Disconnect(context.Background())
		})
		return NewMongoStore(client, db)
	})
}

const mockNamespace = "catalog.products"

func productDocument(updatedAt time.Time, reviews ...bson.D) bson.D {
	embedded := bson.A{}
	for _, r := range reviews {
		embedded = append(embedded, r)
	}
	return bson.D{
		{Key: "_id", Value: "p1"},
		{Key: "name", Value: "name-p1"},
		{Key: "category", Value: "c"},
		{Key: "price", Value: 10.0},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(updatedAt)},
		{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(updatedAt)},
		{Key: "reviews", Value: embedded},
	}
}

func reviewDocument(id string, updatedAt time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "productId", Value: "p1"},
		{Key: "comment", Value: "good"},
		{Key: "rate", Value: int32(4)},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(updatedAt)},
		{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(updatedAt)},
	}
}

func found(doc bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch, doc)
}

func writeResult(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func TestMongoRepositoriesAgainstMockServer(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := storeTime(0)

	mt.Run("product update gives up after repeated conflicts", func(mt *mtest.T) {
		repo := &mongoProductRepository{coll: mt.Coll}
		for i := 0; i < maxUpdateAttempts; i++ {
			mt.AddMockResponses(found(productDocument(at)), writeResult(0, 0))
		}

		calls := 0
		_, err := repo.Update(context.Background(), "p1", func(p *models.Product) error {
			calls++
			p.UpdatedAt = bump(p.UpdatedAt)
			return nil
		})
		assert.ErrorIs(mt, err, ErrConflict)
		assert.Equal(mt, maxUpdateAttempts, calls)
	})

	mt.Run("product update retries after one conflict", func(mt *mtest.T) {
		repo := &mongoProductRepository{coll: mt.Coll}
		mt.AddMockResponses(
			found(productDocument(at)), writeResult(0, 0),
			found(productDocument(bump(at))), writeResult(1, 1),
			found(productDocument(bump(bump(at)))),
		)

		got, err := repo.Update(context.Background(), "p1", func(p *models.Product) error {
			p.UpdatedAt = bump(p.UpdatedAt)
			return nil
		})
		require.NoError(mt, err)
		assert.True(mt, got.UpdatedAt.Equal(bump(bump(at))))
	})

	mt.Run("review create on a missing product", func(mt *mtest.T) {
		repo := &mongoReviewRepository{coll: mt.Coll}
		mt.AddMockResponses(writeResult(0, 0))

		err := repo.Create(context.Background(), "ghost", &models.Review{ID: "r1"})
		assert.ErrorIs(mt, err, ErrProductNotFound)
	})

	mt.Run("review update conflict", func(mt *mtest.T) {
		repo := &mongoReviewRepository{coll: mt.Coll}
		for i := 0; i < maxUpdateAttempts; i++ {
			mt.AddMockResponses(found(productDocument(at, reviewDocument("r1", at))), writeResult(0, 0))
		}

		_, err := repo.Update(context.Background(), "p1", "r1", func(r *models.Review) error {
			r.UpdatedAt = bump(r.UpdatedAt)
			return nil
		})
		assert.ErrorIs(mt, err, ErrConflict)
	})

	mt.Run("review update of an unknown review", func(mt *mtest.T) {
		repo := &mongoReviewRepository{coll: mt.Coll}
		mt.AddMockResponses(found(productDocument(at, reviewDocument("r1", at))))

		_, err := repo.Update(context.Background(), "p1", "r9", func(*models.Review) error { return nil })
		assert.ErrorIs(mt, err, ErrReviewNotFound)
	})

	mt.Run("review delete distinguishes product and review", func(mt *mtest.T) {
		repo := &mongoReviewRepository{coll: mt.Coll}
		mt.AddMockResponses(writeResult(1, 0), writeResult(0, 0), writeResult(1, 1))

		assert.ErrorIs(mt, repo.Delete(context.Background(), "p1", "r9"), ErrReviewNotFound)
		assert.ErrorIs(mt, repo.Delete(context.Background(), "ghost", "r1"), ErrProductNotFound)
		assert.NoError(mt, repo.Delete(context.Background(), "p1", "r1"))
	})
}
