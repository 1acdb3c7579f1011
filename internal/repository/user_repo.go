package repository

import (
	"context"
	"errors"
	"time"

	"survai/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateEmail is returned when a user email is already taken
var ErrDuplicateEmail = errors.New("email already in use")

// UserRepo handles MongoDB operations for organization members
type UserRepo interface {
	Create(ctx context.Context, user *model.User) (string, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	// ListAvailable returns active users of orgID not in exclude, up to limit
	ListAvailable(ctx context.Context, orgID string, exclude []string, limit int) ([]*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TouchLastResponse(ctx context.Context, userID string, at time.Time) error
}

type userRepo struct {
	collection *mongo.Collection
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) (string, error) {
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	user.CreatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateEmail
		}
		return "", err
	}
	return user.ID, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *userRepo) ListAvailable(ctx context.Context, orgID string, exclude []string, limit int) ([]*model.User, error) {
	filter := bson.M{
		"organizationId": orgID,
		"status":         model.UserActive,
	}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) TouchLastResponse(ctx context.Context, userID string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"lastSurveyResponseAt": at}},
	)
	return err
}

// OrganizationRepo stores organizations
type OrganizationRepo interface {
	Create(ctx context.Context, org *model.Organization) (string, error)
	GetByID(ctx context.Context, id string) (*model.Organization, error)
}

type organizationRepo struct {
	collection *mongo.Collection
}

func NewOrganizationRepo(db *mongo.Database) OrganizationRepo {
	return &organizationRepo{collection: db.Collection("organizations")}
}

func (r *organizationRepo) Create(ctx context.Context, org *model.Organization) (string, error) {
	if org.ID == "" {
		org.ID = primitive.NewObjectID().Hex()
	}
	org.CreatedAt = time.Now()
	if _, err := r.collection.InsertOne(ctx, org); err != nil {
		return "", err
	}
	return org.ID, nil
}

func (r *organizationRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
