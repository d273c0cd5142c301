package businessRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookflow/database"
	"bookflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a business or service does not exist.
var ErrNotFound = errors.New("not found")

// BusinessRepository provides point lookups used on every availability check.
type BusinessRepository interface {
	GetBusinessByID(ctx context.Context, id string) (*models.Business, error)
	GetServiceByID(ctx context.Context, id string) (*models.Service, error)
	UpsertBusiness(ctx context.Context, biz *models.Business) error
	UpsertService(ctx context.Context, svc *models.Service) error
}

type MongoBusinessRepo struct {
	businessColl *mongo.Collection
	serviceColl  *mongo.Collection
}

func NewMongoBusinessRepo() *MongoBusinessRepo {
	return &MongoBusinessRepo{
		businessColl: database.Collection("businesses"),
		serviceColl:  database.Collection("services"),
	}
}

func (repo *MongoBusinessRepo) GetBusinessByID(ctx context.Context, id string) (*models.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var biz models.Business
	if err := repo.businessColl.FindOne(ctx, bson.M{"id": id}).Decode(&biz); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch business %s: %w", id, err)
	}
	return &biz, nil
}

func (repo *MongoBusinessRepo) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var svc models.Service
	if err := repo.serviceColl.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &svc, nil
}

func (repo *MongoBusinessRepo) UpsertBusiness(ctx context.Context, biz *models.Business) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	biz.UpdatedAt = time.Now().UTC()
	if biz.CreatedAt.IsZero() {
		biz.CreatedAt = biz.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.businessColl.ReplaceOne(ctx, bson.M{"id": biz.ID}, biz, opts); err != nil {
		return fmt.Errorf("failed to upsert business %s: %w", biz.ID, err)
	}
	return nil
}

func (repo *MongoBusinessRepo) UpsertService(ctx context.Context, svc *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := repo.serviceColl.ReplaceOne(ctx, bson.M{"id": svc.ID}, svc, opts); err != nil {
		return fmt.Errorf("failed to upsert service %s: %w", svc.ID, err)
	}
	return nil
}
