package stores

import (
	"printstudio/core"
	"printstudio/stores/aws"
	"printstudio/stores/filesystem"
	"printstudio/stores/memory"
	"printstudio/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all store types.
type Store interface {
	core.ShareStore
	core.DesignStore
}

// Config selects a backing store. Populated from the environment via
// envconfig in main.
type Config struct {
	Type           string `envconfig:"STORAGE_TYPE"`
	DataSourceName string `envconfig:"DATA_SOURCE_NAME" default:"printstudio.db"`
	BasePath       string `envconfig:"LOCAL_STORAGE_PATH" default:"./data"`
	Bucket         string `envconfig:"S3_BUCKET_NAME"`
}

func GetStore(cfg Config) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.BasePath
		store = filesystem.NewStore(cfg.BasePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		if cfg.Bucket == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.Bucket
		store = aws.NewStore(cfg.Bucket)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
