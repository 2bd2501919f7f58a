package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
	"chess_mentor/internal/domain/user"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/random"
	"chess_mentor/internal/statuses"
)

type MongoUserStorage struct {
	adapter *adapters.AdapterMongo
	log     *zap.SugaredLogger
}

func NewMongoUserStorage(adapter *adapters.AdapterMongo, log *zap.SugaredLogger) *MongoUserStorage {
	return &MongoUserStorage{adapter: adapter, log: log}
}

func (m *MongoUserStorage) CheckExists(username string) bool {
	_, ok := m.GetUser(username)
	return ok
}

func (m *MongoUserStorage) GetUser(username string) (user.User, bool) {
	collection := m.adapter.Database.Collection("users")

	var result user.User
	err := collection.FindOne(context.TODO(), bson.D{{Key: "username", Value: username}}).Decode(&result)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			m.log.Error(err)
		}
		return user.User{}, false
	}
	return result, true
}

func (m *MongoUserStorage) GetUserByID(id string) (user.User, bool) {
	collection := m.adapter.Database.Collection("users")

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, false
	}

	var result user.User
	err = collection.FindOne(context.TODO(), bson.D{{Key: "_id", Value: oid}}).Decode(&result)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			m.log.Error(err)
		}
		return user.User{}, false
	}
	return result, true
}

func (m *MongoUserStorage) CreateUser(username, email, password string) (user.User, error) {
	if _, found := m.GetUser(username); found {
		return user.User{}, errs.ErrUserExists
	}

	salt := random.RandString(16)
	newUser := user.User{
		Username:     username,
		Email:        email,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		PasswordHash: HashPassword(password, salt),
		PasswordSalt: salt,
	}

	collection := m.adapter.Database.Collection("users")
	result, err := collection.InsertOne(context.TODO(), newUser)
	if err != nil {
		m.log.Error(err)
		return user.User{}, errs.ErrInternal
	}
	newUser.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return newUser, nil
}

// RecordResult updates the player's win/loss/draw counters after a finished
// game. result uses PGN result strings; playerColor is "white" or "black".
func (m *MongoUserStorage) RecordResult(ctx context.Context, userID string, playerColor string, result string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	field := "statistic.draws"
	switch {
	case result == statuses.ResultDraw:
	case (result == statuses.ResultWhiteWins) == (playerColor == "white"):
		field = "statistic.wins"
	default:
		field = "statistic.losses"
	}

	collection := m.adapter.Database.Collection("users")
	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{field: 1},
			"$set": bson.M{"updated_at": time.Now()},
		})
	return err
}

func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
