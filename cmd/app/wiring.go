package main

import (
	"context"
	"errors"
	"fmt"

	dbadapter "gramly/internal/adapters/database"
	"gramly/internal/adapters/media"
	"gramly/internal/adapters/memory"
	mongoadapter "gramly/internal/adapters/mongodb"
	redisadapter "gramly/internal/adapters/redis"
	"gramly/internal/config"
	"gramly/internal/metrics"
	commentPort "gramly/internal/ports/comment"
	desyncPort "gramly/internal/ports/desync"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stores holds the adapters selected by STORE_DRIVER plus the optional cache.
type stores struct {
	users    userPort.UserRepository
	posts    postPort.PostRepository
	comments commentPort.CommentRepository
	journal  desyncPort.Journal
	cache    userPort.SummaryCache

	gormDB  *gorm.DB
	mongoDB *mongo.Database

	closers []func(context.Context) error
}

func openStores(ctx context.Context, s *config.Settings, logger *zap.Logger) (*stores, error) {
	st := &stores{}

	switch s.StoreDriver {
	case config.DriverMySQL:
		db, err := config.OpenMySQL(ctx, s.DBDSN)
		if err != nil {
			return nil, err
		}
		st.gormDB = db
		st.users = dbadapter.NewUserRepositoryDatabase(db)
		st.posts = dbadapter.NewPostRepositoryDatabase(db)
		st.comments = dbadapter.NewCommentRepositoryDatabase(db)
		st.journal = dbadapter.NewJournalRepositoryDatabase(db)
		st.closers = append(st.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})

	case config.DriverMongo:
		client, db, err := config.OpenMongo(ctx, s.MongoURI, s.MongoDB)
		if err != nil {
			return nil, err
		}
		st.mongoDB = db
		st.users = mongoadapter.NewUserRepositoryMongo(db)
		st.posts = mongoadapter.NewPostRepositoryMongo(db)
		st.comments = mongoadapter.NewCommentRepositoryMongo(db)
		st.journal = mongoadapter.NewJournalRepositoryMongo(db)
		st.closers = append(st.closers, client.Disconnect)

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		st.users = memory.NewUserRepository()
		st.posts = memory.NewPostRepository()
		st.comments = memory.NewCommentRepository()
		st.journal = memory.NewJournal()

	default:
		return nil, fmt.Errorf("unknown store driver %q", s.StoreDriver)
	}

	if s.RedisAddr != "" {
		client, err := config.OpenRedis(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB)
		if err != nil {
			// The cache is optional; the feed reads from the store without it.
			logger.Warn("summary cache disabled", zap.Error(err))
		} else {
			st.cache = redisadapter.NewSummaryCacheRedis(client, s.CacheTTL, logger)
			st.closers = append(st.closers, func(context.Context) error { return client.Close() })
		}
	}

	return st, nil
}

// migrate creates tables or indexes for the selected driver.
func (st *stores) migrate(ctx context.Context) error {
	switch {
	case st.gormDB != nil:
		return dbadapter.Migrate(st.gormDB.WithContext(ctx))
	case st.mongoDB != nil:
		return mongoadapter.EnsureIndexes(ctx, st.mongoDB)
	}
	return nil
}

func (st *stores) close(ctx context.Context) error {
	var errs []error
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openMedia(s *config.Settings, logger *zap.Logger) (*media.LocalStore, error) {
	return media.NewLocalStore(s.MediaDir, s.MediaBaseURL, logger)
}

func newCollector() *metrics.Collector {
	return metrics.NewCollector("gramly")
}
