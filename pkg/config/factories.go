package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/session"
	"github.com/cabinetfs/cabinet/pkg/store/content"
	contentFs "github.com/cabinetfs/cabinet/pkg/store/content/fs"
	contentMemory "github.com/cabinetfs/cabinet/pkg/store/content/memory"
	contentS3 "github.com/cabinetfs/cabinet/pkg/store/content/s3"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	metadataBadger "github.com/cabinetfs/cabinet/pkg/store/metadata/badger"
	metadataMemory "github.com/cabinetfs/cabinet/pkg/store/metadata/memory"
	"github.com/mitchellh/mapstructure"
)

// CreateMetadataStore creates a metadata store based on configuration.
//
// The Type field selects the implementation; the matching map section is
// decoded and passed to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/metadata/memory (ephemeral, for tests and dev)
//   - "badger": Uses pkg/store/metadata/badger (BadgerDB, persistent)
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.Store, error) {
	switch cfg.Type {
	case "memory":
		return metadataMemory.NewMemoryStore(), nil
	case "badger":
		return createBadgerMetadataStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
}

func createBadgerMetadataStore(ctx context.Context, options map[string]any) (metadata.Store, error) {
	var storeCfg metadataBadger.BadgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger metadata store config: %w", err)
	}

	if storeCfg.Dir == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger metadata store: dir is required")
	}

	store, err := metadataBadger.NewBadgerStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger metadata store: %w", err)
	}

	return store, nil
}

// CreateContentStore creates a content store based on configuration.
//
// Supported types:
//   - "filesystem": Uses pkg/store/content/fs (local filesystem storage)
//   - "memory": Uses pkg/store/content/memory (ephemeral)
//   - "s3": Uses pkg/store/content/s3 (Amazon S3 or compatible storage)
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		return contentMemory.NewMemoryStore(), nil
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q (supported: filesystem, memory, s3)", cfg.Type)
	}
}

func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type FilesystemContentStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

func createS3ContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type S3ContentStoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3ContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint support for MinIO, Localstack, etc.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain.
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := contentS3.NewS3Store(ctx, contentS3.S3StoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateSessionCache creates the token cache based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/session's in-memory cache
//   - "badger": Uses BadgerDB with native TTL expiry
func CreateSessionCache(ctx context.Context, cfg *SessionsConfig) (session.Cache, error) {
	switch cfg.Type {
	case "memory":
		return session.NewMemoryCache(), nil
	case "badger":
		var cacheCfg session.BadgerCacheConfig
		if err := mapstructure.Decode(cfg.Badger, &cacheCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger session cache config: %w", err)
		}
		if cacheCfg.Dir == "" && !cacheCfg.InMemory {
			return nil, fmt.Errorf("badger session cache: dir is required")
		}
		cache, err := session.NewBadgerCache(ctx, cacheCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger session cache: %w", err)
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown session cache type: %q (supported: memory, badger)", cfg.Type)
	}
}

// CreateQueue creates the job queue based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/queue's in-memory queue (jobs lost on restart)
//   - "badger": Uses BadgerDB for a persistent queue
func CreateQueue(ctx context.Context, cfg *QueueConfig) (queue.Queue, error) {
	opts := queue.Options{
		PollInterval:  cfg.PollInterval,
		LeaseDuration: cfg.LeaseDuration,
		MaxAttempts:   cfg.MaxAttempts,
	}

	switch cfg.Type {
	case "memory":
		return queue.NewMemoryQueue(opts), nil
	case "badger":
		var queueCfg queue.BadgerQueueConfig
		if err := mapstructure.Decode(cfg.Badger, &queueCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger queue config: %w", err)
		}
		if queueCfg.Dir == "" && !queueCfg.InMemory {
			return nil, fmt.Errorf("badger queue: dir is required")
		}
		q, err := queue.NewBadgerQueue(ctx, queueCfg, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger queue: %w", err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue type: %q (supported: memory, badger)", cfg.Type)
	}
}
