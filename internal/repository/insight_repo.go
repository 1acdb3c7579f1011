package repository

import (
	"context"

	"survai/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsightRepo stores immutable insight snapshots. Rows are never updated.
type InsightRepo interface {
	Create(ctx context.Context, insight *model.SurveyInsight) (string, error)
	Latest(ctx context.Context, surveyID string) (*model.SurveyInsight, error)
	ListBySurvey(ctx context.Context, surveyID string, limit int) ([]*model.SurveyInsight, error)
}

type insightRepo struct {
	collection *mongo.Collection
}

// NewInsightRepo creates a new insight repository
func NewInsightRepo(db *mongo.Database) InsightRepo {
	return &insightRepo{
		collection: db.Collection("survey_insights"),
	}
}

func (r *insightRepo) Create(ctx context.Context, insight *model.SurveyInsight) (string, error) {
	if insight.ID == "" {
		insight.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, insight); err != nil {
		return "", err
	}
	return insight.ID, nil
}

func (r *insightRepo) Latest(ctx context.Context, surveyID string) (*model.SurveyInsight, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generatedAt", Value: -1}})

	var insight model.SurveyInsight
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID}, opts).Decode(&insight)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

func (r *insightRepo) ListBySurvey(ctx context.Context, surveyID string, limit int) ([]*model.SurveyInsight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generatedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.SurveyInsight
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
