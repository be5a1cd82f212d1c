package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/nexus/config"
	"github.com/shashiranjanraj/nexus/pkg/crypt"
	"github.com/shashiranjanraj/nexus/pkg/logger"
)

// TokenPurpose is the key derivation label for the sealed token values.
const TokenPurpose = "nexus/state/tokens"

// Open boots the driver selected by STATE_DRIVER and seals the token keys
// with a key derived from APP_KEY.
func Open(ctx context.Context) (Store, error) {
	st, err := OpenDriver(ctx, config.StateDriver())
	if err != nil {
		return nil, err
	}

	box, err := crypt.NewBox(config.AppKey(), TokenPurpose)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	return Seal(st, box, KeyAccessToken, KeyRefreshToken), nil
}

// OpenDriver boots one driver by name with its settings from config.
func OpenDriver(ctx context.Context, driver string) (Store, error) {
	logger.Debug("storage: opening state store", "driver", driver)

	switch driver {
	case "memory":
		return NewMemory(), nil
	case "local":
		return NewLocal(config.StateDir()), nil
	case "redis":
		return NewRedis(ctx, config.RedisAddr(), config.RedisPassword())
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   config.S3Bucket(),
			Region:   config.S3Region(),
			Key:      config.S3Key(),
			Secret:   config.S3Secret(),
			Endpoint: config.S3Endpoint(),
			Prefix:   config.S3Prefix(),
		})
	case "sql":
		return NewSQL(config.StateDBDriver(), config.StateDSN())
	case "mongo":
		return NewMongo(ctx, config.MongoURI(), config.MongoDatabase())
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
