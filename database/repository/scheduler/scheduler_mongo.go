package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fadetogo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultStoreTimeout = 5 * time.Second

// scheduleDoc is the per-provider version counter.
type scheduleDoc struct {
	ProviderID string `bson:"providerId"`
	Version    int64  `bson:"version"`
}

// MongoSchedulerRepo implements SchedulerRepository using MongoDB. Conditional
// writes run inside a multi-document transaction, so the deployment must be a
// replica set.
type MongoSchedulerRepo struct {
	client       *mongo.Client
	bookingColl  *mongo.Collection
	scheduleColl *mongo.Collection
	timeout      time.Duration
}

// NewMongoSchedulerRepo constructs a MongoSchedulerRepo and ensures its indexes.
func NewMongoSchedulerRepo(db *mongo.Database) (*MongoSchedulerRepo, error) {
	repo := &MongoSchedulerRepo{
		client:       db.Client(),
		bookingColl:  db.Collection("bookings"),
		scheduleColl: db.Collection("provider_schedules"),
		timeout:      defaultStoreTimeout,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (repo *MongoSchedulerRepo) currentVersion(ctx context.Context, providerID string) (int64, error) {
	var doc scheduleDoc
	err := repo.scheduleColl.FindOne(ctx, bson.M{"providerId": providerID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error fetching schedule version for provider %s: %w", providerID, err)
	}
	return doc.Version, nil
}

// ListAcceptedBookings reads the version before the bookings. A write landing
// in between makes the returned version stale, which only causes a spurious
// conflict later, never a missed one.
func (repo *MongoSchedulerRepo) ListAcceptedBookings(ctx context.Context, providerID string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	version, err := repo.currentVersion(ctx, providerID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"providerId": providerID, "status": models.StatusAccepted}
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduledStart", Value: 1}}).
		SetProjection(bson.M{"id": 1, "scheduledStart": 1, "totalDurationMinutes": 1})
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding accepted bookings: %w", err)
	}
	defer cursor.Close(ctx)

	schedule := &models.Schedule{ProviderID: providerID, Version: version, Slots: []models.Slot{}}
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		schedule.Slots = append(schedule.Slots, b.Slot())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return schedule, nil
}

func (repo *MongoSchedulerRepo) ListChangedSince(ctx context.Context, providerID string, version int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	filter := bson.M{"providerId": providerID, "scheduleVersion": bson.M{"$gt": version}}
	return repo.findBookings(ctx, filter, options.Find())
}

// bumpVersion advances the provider's version inside a transaction. A missing
// schedule document is created when expectedVersion is zero; the unique index
// on providerId turns a lost upsert race into a duplicate key error.
func (repo *MongoSchedulerRepo) bumpVersion(sc mongo.SessionContext, providerID string, expectedVersion int64) (int64, error) {
	filter := bson.M{"providerId": providerID, "version": expectedVersion}
	update := bson.M{"$inc": bson.M{"version": 1}}
	opts := options.Update().SetUpsert(expectedVersion == 0)

	res, err := repo.scheduleColl.UpdateOne(sc, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrVersionConflict
		}
		return 0, fmt.Errorf("error bumping schedule version: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

// runTransaction executes fn in a transaction. Write conflicts between
// concurrent transactions on the same schedule document are reported as
// ErrVersionConflict.
func (repo *MongoSchedulerRepo) runTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := repo.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrStatusConflict) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateBooking) {
		return err
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return ErrVersionConflict
	}
	return fmt.Errorf("booking transaction failed: %w", err)
}

func (repo *MongoSchedulerRepo) InsertIfAbsent(ctx context.Context, booking *models.Booking, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	doc := *booking
	err := repo.runTransaction(ctx, func(sc mongo.SessionContext) error {
		newVersion, err := repo.bumpVersion(sc, booking.ProviderID, expectedVersion)
		if err != nil {
			return err
		}
		doc.ScheduleVersion = newVersion
		if _, err := repo.bookingColl.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateBooking
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	booking.ScheduleVersion = doc.ScheduleVersion
	return nil
}

func (repo *MongoSchedulerRepo) AcceptIfUnchanged(ctx context.Context, bookingID string, expectedVersion int64, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	current, err := repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var accepted models.Booking
	err = repo.runTransaction(ctx, func(sc mongo.SessionContext) error {
		newVersion, err := repo.bumpVersion(sc, current.ProviderID, expectedVersion)
		if err != nil {
			return err
		}
		filter := bson.M{"id": bookingID, "status": models.StatusPending}
		update := bson.M{"$set": bson.M{
			"status":          models.StatusAccepted,
			"scheduleVersion": newVersion,
			"updatedAt":       at,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if err := repo.bookingColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&accepted); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrStatusConflict
			}
			return fmt.Errorf("error accepting booking %s: %w", bookingID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

func (repo *MongoSchedulerRepo) UpdateStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := repo.bookingColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	if _, getErr := repo.GetBooking(ctx, bookingID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

func (repo *MongoSchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	var b models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&b); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", bookingID, err)
	}
	return &b, nil
}

func (repo *MongoSchedulerRepo) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repo.timeout)
	defer cancel()

	query := bson.M{}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}
	if filter.ProviderID != "" {
		query["providerId"] = filter.ProviderID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledStart", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return repo.findBookings(ctx, query, opts)
}

func (repo *MongoSchedulerRepo) findBookings(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
