package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	// DefaultConnectTimeout bounds the initial connect and ping.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultMaxPoolSize is the Mongo client's connection pool ceiling.
	DefaultMaxPoolSize = 100
)

// MongoOptions tunes DialMongo.
type MongoOptions struct {
	URI            string
	Database       string
	AppName        string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// DialMongo connects, pings the primary and returns a MongoStore.
func DialMongo(ctx context.Context, opts MongoOptions, logger *zap.Logger) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if opts.MaxPoolSize == 0 {
		opts.MaxPoolSize = DefaultMaxPoolSize
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetConnectTimeout(opts.ConnectTimeout)
	if opts.AppName != "" {
		clientOpts.SetAppName(opts.AppName)
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", opts.Database),
		zap.Uint64("max_pool", opts.MaxPoolSize))

	return NewMongoStore(client, opts.Database, logger), nil
}

// sqliteDriverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's own LOWER folds ASCII only.
const sqliteDriverName = "sqlite3_syncrivo"

var registerSQLiteDriver sync.Once

func sqliteDriver() string {
	registerSQLiteDriver.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
			},
		})
	})
	return sqliteDriverName
}

// OpenSQLite opens a sqlite database through gorm. An in-memory DSN is pinned
// to a single connection, since every new connection would see an empty
// database.
func OpenSQLite(dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriver(), DSN: dsn}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("connected to SQLite", zap.String("dsn", dsn))
	return NewSQLStore(db, logger), nil
}
