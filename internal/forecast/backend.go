package forecast

import (
	"context"
	"fmt"

	"salesforecast/internal/artifact"
	"salesforecast/internal/config"
	"salesforecast/internal/predict"
)

// Backend is the artifact store and dispatcher built from configuration.
type Backend struct {
	Store      artifact.Store
	Paths      map[predict.Kind]string
	Dispatcher *predict.Dispatcher
}

// NewBackend resolves artifact locations from cfg and the optional model
// registry, and builds a dispatcher that reads them through local or S3
// storage.
func NewBackend(ctx context.Context, cfg *config.Config, registry *config.ModelsConfig) (*Backend, error) {
	if err := registry.Normalize(canonicalKind); err != nil {
		return nil, fmt.Errorf("invalid models file: %w", err)
	}

	paths := make(map[predict.Kind]string)
	for kind, uri := range cfg.ArtifactPaths(registry) {
		k, err := predict.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		paths[k] = uri
	}

	s3Store, err := artifact.NewS3Store(ctx, artifact.S3Config{
		EndpointURL:     cfg.S3EndpointURL,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
	})
	if err != nil {
		return nil, err
	}
	store := artifact.MultiStore{Local: artifact.LocalStore{}, S3: s3Store}

	return &Backend{
		Store:      store,
		Paths:      paths,
		Dispatcher: predict.New(predict.NewLoader(store), paths),
	}, nil
}

func canonicalKind(s string) (string, error) {
	k, err := predict.ParseKind(s)
	return string(k), err
}
