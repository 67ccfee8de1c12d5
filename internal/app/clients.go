package app

import (
	"fmt"

	"github.com/yungbote/schemaflow-backend/internal/clients/gcp"
	redisclient "github.com/yungbote/schemaflow-backend/internal/clients/redis"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
)

type Clients struct {
	TypeCache *redisclient.TypeCache
	Archiver  *gcp.BucketArchiver
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	typeCache := redisclient.NewTypeCacheFromEnv(log)
	if typeCache == nil {
		log.Info("REDIS_ADDR not set, type cache disabled")
	}

	archiver, err := gcp.NewBucketArchiverFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init archiver: %w", err)
	}
	if archiver == nil {
		log.Info("ARCHIVE_BUCKET not set, document archival disabled")
	}

	return Clients{
		TypeCache: typeCache,
		Archiver:  archiver,
	}, nil
}

func (c Clients) Close() {
	if c.TypeCache != nil {
		_ = c.TypeCache.Close()
	}
	if c.Archiver != nil {
		_ = c.Archiver.Close()
	}
}
