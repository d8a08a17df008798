package storage

import (
	"context"
	"fmt"

	"studydocs/internal/config"
)

// Provider names the concrete backend chosen at startup.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderMinIO Provider = "minio"
	ProviderLocal Provider = "local"
)

// SelectProvider picks the backend from configuration completeness alone: a remote store is used
// when all of its credentials are present, AWS S3 taking precedence over MinIO, otherwise local disk.
func SelectProvider(cfg *config.AppConfig) Provider {
	switch {
	case cfg.S3.Complete():
		return ProviderS3
	case cfg.MinIO.Complete():
		return ProviderMinIO
	default:
		return ProviderLocal
	}
}

// New builds the backend chosen by SelectProvider. It is called once at startup; an error here
// (unreachable bucket, no credentials and no local root) must stop the process.
func New(ctx context.Context, cfg *config.AppConfig) (Storage, Provider, error) {
	p := SelectProvider(cfg)
	var (
		s   Storage
		err error
	)
	switch p {
	case ProviderS3:
		s, err = NewS3(ctx, cfg.S3)
	case ProviderMinIO:
		s, err = NewMinIO(cfg.MinIO)
	default:
		if cfg.Storage.LocalRoot == "" {
			return nil, p, fmt.Errorf("no remote storage credentials and no local storage root configured")
		}
		s, err = NewLocal(cfg.Storage.LocalRoot)
	}
	if err != nil {
		return nil, p, fmt.Errorf("init %s storage: %w", p, err)
	}
	return s, p, nil
}
