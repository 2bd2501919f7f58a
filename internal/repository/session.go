package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTTL = 11 * time.Hour

type RedisSessionStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewSessionRedisStorage(client *redis.Client, log *zap.SugaredLogger) *RedisSessionStorage {
	return &RedisSessionStorage{
		client: client,
		log:    log,
	}
}

func (r *RedisSessionStorage) GetUserIdBySession(sessionID string) (userID string, ok bool) {
	v, err := r.client.Get(context.Background(), "session:"+sessionID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Error(err)
		}
		return "", false
	}
	return v, true
}

func (r *RedisSessionStorage) StoreSession(sessionID string, userID string) {
	r.client.Set(context.Background(), "session:"+sessionID, userID, sessionTTL)
}

func (r *RedisSessionStorage) DeleteSession(sessionID string) (ok bool) {
	deleted, err := r.client.Del(context.Background(), "session:"+sessionID).Result()
	if err != nil {
		r.log.Error(err)
		return false
	}
	return deleted > 0
}
