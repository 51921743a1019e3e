// Package storage opens the kv.Store backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/database"
	"github.com/edgard/rojitobot/internal/kv"
	"github.com/edgard/rojitobot/internal/kv/dynamostore"
	"github.com/edgard/rojitobot/internal/kv/redisstore"
)

// Open connects to the configured backend. The caller closes the store.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (kv.Store, error) {
	log = log.With("driver", cfg.Driver)

	switch cfg.Driver {
	case "sqlite":
		store, err := database.Open(ctx, cfg.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		log.Info("Using SQLite store", "path", cfg.SQLite.Path)
		return store, nil

	case "redis":
		store, err := redisstore.New(ctx, cfg.Redis.URL, cfg.Redis.Prefix, log)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis store", "prefix", cfg.Redis.Prefix)
		return store, nil

	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		store, err := dynamostore.New(client, cfg.DynamoDB.Table)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		log.Info("Using DynamoDB store", "table", cfg.DynamoDB.Table, "region", cfg.DynamoDB.Region)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
