package repository

import (
	"context"
	"time"

	"survai/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResponseRepo handles MongoDB operations for survey responses
type ResponseRepo interface {
	Create(ctx context.Context, resp *model.Response) (string, error)
	GetByID(ctx context.Context, id string) (*model.Response, error)
	Update(ctx context.Context, resp *model.Response) error
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error)
	ListCompletedBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error)
	CountCompletedBySurvey(ctx context.Context, surveyID string) (int64, error)
	ClearAssignmentLinks(ctx context.Context, surveyID string) error
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Create(ctx context.Context, resp *model.Response) (string, error) {
	if resp.ID == "" {
		resp.ID = primitive.NewObjectID().Hex()
	}
	resp.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (r *responseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	var resp model.Response
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&resp)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepo) Update(ctx context.Context, resp *model.Response) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": resp.ID}, resp)
	return err
}

func (r *responseRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	return r.find(ctx, bson.M{"surveyId": surveyID})
}

func (r *responseRepo) ListCompletedBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	return r.find(ctx, bson.M{"surveyId": surveyID, "completedAt": bson.M{"$ne": nil}})
}

func (r *responseRepo) find(ctx context.Context, filter bson.M) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Response
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseRepo) CountCompletedBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID, "completedAt": bson.M{"$ne": nil}})
}

func (r *responseRepo) ClearAssignmentLinks(ctx context.Context, surveyID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"surveyId": surveyID},
		bson.M{"$unset": bson.M{"assignmentId": ""}},
	)
	return err
}

func (r *responseRepo) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
