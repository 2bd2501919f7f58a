package repository

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"chess_mentor/internal/bootstrap"
	"chess_mentor/internal/domain/game"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/statuses"
)

const movesKeyPrefix = "moves:"

type GameRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewGameRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *GameRepository {
	return &GameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

// GenerateGameKeys produces a secret uuid key and a short public key derived
// from it, retrying until the public key is unused.
func (g *GameRepository) GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string) {
	gameKeySecret = uuid.New().String()
	for {
		gameKeyPublic = generateHash(gameKeySecret)
		if g.checkPublicKeyIsUniq(ctx, gameKeyPublic) {
			return gameKeySecret, gameKeyPublic
		}
		gameKeySecret = uuid.New().String()
	}
}

func generateHash(s string) string {
	h := md5.New()
	h.Write([]byte(s))
	hashBytes := h.Sum(nil)
	number := binary.BigEndian.Uint32(hashBytes[:4])
	code := number % 100000
	return fmt.Sprintf("%05d", code)
}

func (g *GameRepository) checkPublicKeyIsUniq(ctx context.Context, gameKeyPublic string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	err := collection.FindOne(ctx, bson.M{"game_key_public": gameKeyPublic}).Err()
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (g *GameRepository) PutGame(ctx context.Context, gameData game.Game) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	if _, err := collection.InsertOne(ctx, gameData); err != nil {
		g.log.Errorf("failed to insert game to database: %v", err)
		return false
	}

	g.log.Infof("game inserted successfully with key: %s", gameData.GameKeyPublic)
	return true
}

func (g *GameRepository) GetGameBySecretKey(ctx context.Context, gameKeySecret string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")

	var result game.Game
	err := collection.FindOne(ctx, bson.M{"game_key_secret": gameKeySecret}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Game{}, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return game.Game{}, err
	}

	return result, nil
}

func (g *GameRepository) GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")

	var result game.Game
	err := collection.FindOne(ctx, bson.M{"game_key_public": gameKeyPublic}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Game{}, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return game.Game{}, err
	}

	return result, nil
}

// SaveMoves stores the live move list of a game in redis.
func (g *GameRepository) SaveMoves(ctx context.Context, gameKeySecret string, moves []game.MoveRecord) error {
	raw, err := json.Marshal(moves)
	if err != nil {
		return err
	}
	return g.redis.Set(ctx, movesKeyPrefix+gameKeySecret, raw, 0).Err()
}

// LoadMoves returns the live move list, empty when no move has been played.
func (g *GameRepository) LoadMoves(ctx context.Context, gameKeySecret string) ([]game.MoveRecord, error) {
	val, err := g.redis.Get(ctx, movesKeyPrefix+gameKeySecret).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var moves []game.MoveRecord
	if err := json.Unmarshal([]byte(val), &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// CompleteGame marks the game finished in mongo with its result and the full
// move list, and drops the live redis state.
func (g *GameRepository) CompleteGame(ctx context.Context, gameKeySecret string, result string, moves []game.MoveRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	collection := g.mongo.Collection("games")
	update := bson.M{
		"$set": bson.M{
			"status":      statuses.StatusCompleted,
			"result":      result,
			"moves":       moves,
			"finished_at": now,
		},
	}
	res, err := collection.UpdateOne(ctx, bson.M{"game_key_secret": gameKeySecret}, update)
	if err != nil {
		g.log.Errorf("failed to complete game %s: %v", gameKeySecret, err)
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrGameNotFound
	}

	if err := g.redis.Del(ctx, movesKeyPrefix+gameKeySecret).Err(); err != nil {
		g.log.Warnf("failed to drop live state of game %s: %v", gameKeySecret, err)
	}
	return nil
}

// GetArchiveGamesByPlayer lists a player's completed games, newest first.
func (g *GameRepository) GetArchiveGamesByPlayer(ctx context.Context, playerID string) ([]game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	filter := bson.M{
		"player_id": playerID,
		"status":    statuses.StatusCompleted,
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		g.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []game.Game
	for cursor.Next(ctx) {
		var play game.Game
		if err := cursor.Decode(&play); err != nil {
			g.log.Error(err)
			return nil, err
		}
		result = append(result, play)
	}
	return result, nil
}
