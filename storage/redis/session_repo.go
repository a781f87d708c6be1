package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/storage"
)

type sessionRepo struct {
	client *goredis.Client
	ttl    time.Duration
	log    logger.ILogger
}

func NewSessionRepo(client *goredis.Client, ttl time.Duration, log logger.ILogger) storage.ISessionStorage {
	return &sessionRepo{client: client, ttl: ttl, log: log}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (r *sessionRepo) Get(ctx context.Context, userID int64) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, models.ErrNotFound
		}
		r.log.Error("failed to get session", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(session.UserID), data, r.ttl).Err(); err != nil {
		r.log.Error("failed to save session", logger.Int64("user_id", session.UserID), logger.Error(err))
		return err
	}
	return nil
}

func (r *sessionRepo) Clear(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, sessionKey(userID)).Err()
}
