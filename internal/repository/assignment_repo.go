package repository

import (
	"context"
	"errors"
	"time"

	"survai/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateAssignment is returned when (survey, user) is already assigned
var ErrDuplicateAssignment = errors.New("user already assigned to survey")

// AssignmentRepo handles MongoDB operations for survey assignments
type AssignmentRepo interface {
	Create(ctx context.Context, a *model.Assignment) (string, error)
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.Assignment, error)
	// MarkCompleted links the response and stamps completion
	MarkCompleted(ctx context.Context, id, responseID string, at time.Time) error
	// Detach clears the response link and resets completion
	Detach(ctx context.Context, id string) error
	ClearResponseLinks(ctx context.Context, surveyID string) error
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
}

type assignmentRepo struct {
	collection *mongo.Collection
}

// NewAssignmentRepo creates a new assignment repository
func NewAssignmentRepo(db *mongo.Database) AssignmentRepo {
	return &assignmentRepo{
		collection: db.Collection("survey_assignments"),
	}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) (string, error) {
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateAssignment
		}
		return "", err
	}
	return a.ID, nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Assignment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Assignment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) MarkCompleted(ctx context.Context, id, responseID string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"responseId":  responseID,
			"completed":   true,
			"completedAt": at,
		}},
	)
	return err
}

func (r *assignmentRepo) Detach(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"completed": false},
			"$unset": bson.M{"responseId": "", "completedAt": ""},
		},
	)
	return err
}

func (r *assignmentRepo) ClearResponseLinks(ctx context.Context, surveyID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"surveyId": surveyID},
		bson.M{"$unset": bson.M{"responseId": ""}},
	)
	return err
}

func (r *assignmentRepo) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
