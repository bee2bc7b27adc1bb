// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/form019-finder/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings for the Redis job store
type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	DB        int    `mapstructure:"db" yaml:"db"`
	Password  string `mapstructure:"password" yaml:"password"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// RedisConfigFromEnv reads REDIS_ADDR (default: 127.0.0.1:6379), REDIS_DB
// (default: 0) and REDIS_PASSWORD (optional)
func RedisConfigFromEnv() RedisConfig {
	cfg := RedisConfig{
		Addr:      os.Getenv("REDIS_ADDR"),
		Password:  os.Getenv("REDIS_PASSWORD"),
		KeyPrefix: "form019:",
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			logger.Warnf("NewRedisClient: invalid REDIS_DB value '%s', using default 0", dbStr)
		} else {
			cfg.DB = db
		}
	}
	return cfg
}

// NewRedisClient connects to Redis and verifies the connection with PING
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	logger.Printf("NewRedisClient: addr=%s db=%d passwordSet=%v", cfg.Addr, cfg.DB, cfg.Password != "")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}

	logger.Printf("NewRedisClient: successfully connected to Redis")
	return client, nil
}
