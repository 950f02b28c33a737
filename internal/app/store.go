package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/repository/mongostore"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the persistence backend picked by DB_DRIVER.
type Store struct {
	Users   repository.UserRepository
	Tasks   repository.TaskRepository
	Notices repository.NoticeRepository

	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// NewGormStore wraps an open GORM connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:   repository.NewUserRepository(db),
		Tasks:   repository.NewTaskRepository(db),
		Notices: repository.NewNoticeRepository(db),
		migrate: func(ctx context.Context) error {
			return database.Migrate(db.WithContext(ctx))
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// NewMongoStore wraps a Mongo database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	repos := mongostore.New(db)
	return &Store{
		Users:   repos.Users,
		Tasks:   repos.Tasks,
		Notices: repos.Notices,
		migrate: func(ctx context.Context) error {
			return mongostore.EnsureIndexes(ctx, db)
		},
		close: client.Disconnect,
	}
}

// OpenStore connects to the configured database.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.Database.Driver == config.DriverMongo {
		client, db, err := database.ConnectMongo(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, db), nil
	}

	db, err := database.Connect(cfg.Database, gormLogLevel())
	if err != nil {
		return nil, err
	}
	return NewGormStore(db), nil
}

// Migrate brings the schema (or the Mongo indexes) up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// gormLogLevel logs every statement only when logrus runs at debug level.
func gormLogLevel() logger.LogLevel {
	if logging.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return logger.Info
	}
	return logger.Warn
}
