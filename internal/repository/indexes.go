package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// (surveyId, userId) index backs ErrDuplicateAssignment.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		coll   string
		keys   bson.D
		unique bool
	}{
		{"survey_assignments", bson.D{{Key: "surveyId", Value: 1}, {Key: "userId", Value: 1}}, true},
		{"users", bson.D{{Key: "email", Value: 1}}, true},
		{"users", bson.D{{Key: "organizationId", Value: 1}, {Key: "status", Value: 1}}, false},
		{"responses", bson.D{{Key: "surveyId", Value: 1}, {Key: "completedAt", Value: 1}}, false},
		{"survey_insights", bson.D{{Key: "surveyId", Value: 1}, {Key: "generatedAt", Value: -1}}, false},
		{"surveys", bson.D{{Key: "organizationId", Value: 1}}, false},
	}
	for _, s := range specs {
		if err := createIndex(ctx, db.Collection(s.coll), s.keys, s.unique); err != nil {
			return err
		}
	}
	return nil
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
		return fmt.Errorf("create index on %s: %w", coll.Name(), err)
	}
	return nil
}
