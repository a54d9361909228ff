package config

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the cache client. Redis is optional: with no URL
// configured the caller gets a nil client and services skip caching.
func InitRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		log.Println("REDIS_URL not set, running without cache.")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to Redis!")
	return client, nil
}
