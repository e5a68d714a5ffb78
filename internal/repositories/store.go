package repositories

import (
	"context"
	"fmt"
	"time"

	"eshop/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Drivers lists every accepted value of Options.Driver.
var Drivers = []string{DriverMemory, DriverSQLite, DriverPostgres, DriverMongo}

// Options selects and configures a storage backend.
type Options struct {
	Driver        string
	DSN           string
	MongoURI      string
	MongoDatabase string
	Logger        logrus.FieldLogger
}

// Store bundles the repositories of one backend together with its connection.
type Store struct {
	Driver   string
	Users    UserRepository
	Products ProductRepository

	db    *gorm.DB
	mongo *mongo.Client
	mdb   *mongo.Database
}

// Open connects to the configured backend. It does not migrate; call Migrate.
func Open(ctx context.Context, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch opts.Driver {
	case DriverMemory:
		return &Store{
			Driver:   DriverMemory,
			Users:    NewMockUserRepository(),
			Products: NewMockProductRepository(),
		}, nil

	case DriverSQLite, DriverPostgres:
		var dialector gorm.Dialector
		if opts.Driver == DriverSQLite {
			dialector = sqlite.Open(opts.DSN)
		} else {
			dialector = postgres.Open(opts.DSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         newGORMLogger(log),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s database: %w", opts.Driver, err)
		}
		log.WithField("driver", opts.Driver).Info("Connected to relational store")
		return &Store{
			Driver:   opts.Driver,
			Users:    NewGORMUserRepository(db),
			Products: NewGORMProductRepository(db),
			db:       db,
		}, nil

	case DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		mdb := client.Database(opts.MongoDatabase)
		log.WithFields(logrus.Fields{"driver": opts.Driver, "database": opts.MongoDatabase}).Info("Connected to document store")
		return &Store{
			Driver:   DriverMongo,
			Users:    NewMongoUserRepository(mdb),
			Products: NewMongoProductRepository(mdb),
			mongo:    client,
			mdb:      mdb,
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
}

// gormLogWriter forwards GORM's slow-query and error reports to logrus.
type gormLogWriter struct {
	log logrus.FieldLogger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.log.WithField("component", "gorm").Warnf(format, args...)
}

// newGORMLogger reports slow queries and failures only. Missing records are
// expected lookups (unknown email on login) and are not logged.
func newGORMLogger(log logrus.FieldLogger) logger.Interface {
	return logger.New(gormLogWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Migrate creates tables (GORM) or indexes (MongoDB). It is a no-op for memory.
func (s *Store) Migrate(ctx context.Context) error {
	switch {
	case s.db != nil:
		if err := s.db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Product{}, &models.Review{}); err != nil {
			return fmt.Errorf("failed to auto-migrate database: %w", err)
		}
		if err := NewGORMProductRepository(s.db).BackfillSearchColumns(ctx); err != nil {
			return err
		}
	case s.mdb != nil:
		if err := NewMongoUserRepository(s.mdb).EnsureIndexes(ctx); err != nil {
			return err
		}
		if err := NewMongoProductRepository(s.mdb).EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	switch {
	case s.db != nil:
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case s.mongo != nil:
		return s.mongo.Ping(ctx, nil)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	switch {
	case s.db != nil:
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	case s.mongo != nil:
		return s.mongo.Disconnect(ctx)
	}
	return nil
}

// Reset removes all users, products and reviews.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.Products.DeleteAll(ctx); err != nil {
		return err
	}
	return s.Users.DeleteAll(ctx)
}
