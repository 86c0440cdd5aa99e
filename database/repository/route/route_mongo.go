package routeRepo

import (
	"context"
	"fmt"
	"time"

	"ridepool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRouteRepo implements RouteRepository using MongoDB.
type MongoRouteRepo struct {
	coll *mongo.Collection
}

// NewMongoRouteRepo creates a new RouteRepository backed by MongoDB.
func NewMongoRouteRepo(db *mongo.Database) RouteRepository {
	repo := &MongoRouteRepo{coll: db.Collection("routes")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create route indexes: %v\n", err)
	}
	return repo
}

func (r *MongoRouteRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create route indexes: %w", err)
	}
	return nil
}

func (r *MongoRouteRepo) Create(ctx context.Context, route *models.Route) error {
	now := time.Now()
	route.CreatedAt = now
	route.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, route); err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}
	return nil
}

func (r *MongoRouteRepo) Update(ctx context.Context, route *models.Route) error {
	route.UpdatedAt = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": route.ID}, bson.M{"$set": route})
	if err != nil {
		return fmt.Errorf("failed to update route %s: %w", route.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRouteNotFound
	}
	return nil
}

func (r *MongoRouteRepo) GetByID(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&route); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRouteNotFound
		}
		return nil, fmt.Errorf("failed to fetch route %s: %w", id, err)
	}
	return &route, nil
}

func (r *MongoRouteRepo) ListActive(ctx context.Context) ([]models.Route, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer cursor.Close(ctx)

	var routes []models.Route
	for cursor.Next(ctx) {
		var rt models.Route
		if err := cursor.Decode(&rt); err != nil {
			return nil, fmt.Errorf("failed to decode route: %w", err)
		}
		routes = append(routes, rt)
	}
	return routes, nil
}
