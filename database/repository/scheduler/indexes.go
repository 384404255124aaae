package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for the booking and schedule collections.
func (repo *MongoSchedulerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// accepted-slot scans and changed-since lookups
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduledStart", Value: 1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "scheduleVersion", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "scheduledStart", Value: 1}}},
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	scheduleIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.scheduleColl.Indexes().CreateOne(ctx, scheduleIdx); err != nil {
		return fmt.Errorf("failed to create schedule index: %w", err)
	}
	return nil
}
