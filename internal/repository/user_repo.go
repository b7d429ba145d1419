package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mathbattle/internal/model"
)

// UserRepo stores durable player profiles keyed by name.
type UserRepo interface {
	GetByName(ctx context.Context, name string) (*model.UserProfile, error)
	Upsert(ctx context.Context, user *model.UserProfile) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{collection: db.Collection("users")}
}

func (r *userRepo) GetByName(ctx context.Context, name string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // user not found
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Upsert(ctx context.Context, user *model.UserProfile) error {
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"name": user.Name},
		user,
		options.Replace().SetUpsert(true),
	)
	return err
}
