package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver      string // postgres | sqlite
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SQLitePath  string
}

// DSN returns DatabaseURL if set, otherwise a key/value postgres DSN.
func (o Options) DSN() string {
	if o.DatabaseURL != "" {
		return o.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		o.Host, o.User, o.Password, o.Name, o.Port,
	)
}

func ConnectDB(opts Options, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		zap.NewStdLog(log),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: false, // Disables GORM-level prepared statements
	}

	var (
		db  *gorm.DB
		err error
	)
	switch opts.Driver {
	case "postgres", "":
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DSN(),
			PreferSimpleProtocol: true, // Disables implicit prepared statements for pgbouncer transaction mode
		}), cfg)
	case "sqlite":
		db, err = OpenSQLite(opts.SQLitePath, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Connection Pooling Setup
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.Driver == "sqlite" {
		// One writer; avoids "database is locked" under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("Database connection established", zap.String("driver", db.Dialector.Name()))
	return db, nil
}

// OpenSQLite opens path with foreign keys on. Use "file:<name>?mode=memory&cache=shared"
// for an in-memory database shared across connections.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}
	return gorm.Open(sqlite.Open(path), cfg)
}
