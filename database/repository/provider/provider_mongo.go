package providerRepo

import (
	"context"
	"fmt"
	"time"

	"fadetogo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a MongoProviderRepo and ensures its indexes.
func NewMongoProviderRepo(db *mongo.Database) (*MongoProviderRepo, error) {
	r := &MongoProviderRepo{coll: db.Collection("provider_settings")}
	if err := r.ensureIndexes(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoProviderRepo) GetSettings(ctx context.Context, providerID string) (*models.ProviderSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var settings models.ProviderSettings
	if err := r.coll.FindOne(ctx, bson.M{"providerId": providerID}).Decode(&settings); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch settings for provider %s: %w", providerID, err)
	}
	if settings.Services == nil {
		settings.Services = []models.Service{}
	}
	return &settings, nil
}

func (r *MongoProviderRepo) UpsertSettings(ctx context.Context, settings *models.ProviderSettings) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": settings.ProviderID}
	update := bson.M{
		"$set": bson.M{
			"baseLocation": settings.BaseLocation,
			"pricing":      settings.Pricing,
			"workingHours": settings.WorkingHours,
			"isAvailable":  settings.IsAvailable,
			"timezone":     settings.Timezone,
			"updatedAt":    settings.UpdatedAt,
		},
		"$setOnInsert": bson.M{"services": bson.A{}},
	}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert settings for provider %s: %w", settings.ProviderID, err)
	}
	return nil
}

func (r *MongoProviderRepo) AddService(ctx context.Context, providerID string, svc models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"providerId": providerID}, bson.M{"$push": bson.M{"services": svc}})
	if err != nil {
		return fmt.Errorf("failed to add service for provider %s: %w", providerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
