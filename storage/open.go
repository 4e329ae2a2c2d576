package storage

import (
	"context"
	"fmt"

	"musicapp/config"
	"musicapp/logger"
)

const (
	DriverLocal = "local"
	DriverMinio = "minio"
)

// Open returns the backend selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case DriverLocal, "":
		logger.Info("Using local file storage", logger.String("dir", cfg.UploadDir))
		return NewLocalBackend(cfg.UploadDir), nil
	case DriverMinio:
		return NewMinioBackend(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
