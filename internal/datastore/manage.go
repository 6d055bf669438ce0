package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
)

const (
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"

	// DefaultSlowQueryThreshold defines the duration after which a query is considered slow.
	DefaultSlowQueryThreshold = 500 * time.Millisecond

	// MemoryPath opens a private in-memory SQLite database.
	MemoryPath = ":memory:"
)

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path string
}

// MySQLConfig holds MySQL connection parameters.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Config selects and configures the backend.
type Config struct {
	Type               string
	SQLite             SQLiteConfig
	MySQL              MySQLConfig
	SlowQueryThreshold time.Duration
}

// Open connects to the configured backend and migrates the schema.
func Open(cfg Config) (*DataStore, error) {
	log := GetLogger()

	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	gormConfig := &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log.Module("gorm"), cfg.SlowQueryThreshold),
	}

	var (
		dialector gorm.Dialector
		target    string
	)

	switch strings.ToLower(cfg.Type) {
	case "", TypeSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			return nil, validationError("sqlite path is required", "sqlite.path", path)
		}
		if path != MemoryPath {
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return nil, dbError(err, "create_directory", errors.PriorityHigh, "path", path)
			}
		}
		dialector = sqlite.Open(path)
		target = path

	case TypeMySQL:
		if err := validateMySQLConfig(&cfg.MySQL); err != nil {
			return nil, err
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.MySQL.Username, cfg.MySQL.Password,
			cfg.MySQL.Host, cfg.MySQL.Port,
			cfg.MySQL.Database)
		dialector = mysql.Open(dsn)
		target = fmt.Sprintf("%s:%s/%s", cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)

	default:
		return nil, validationError("unsupported datastore type", "datastore.type", cfg.Type)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		log.Error("Failed to open database",
			logger.String("type", cfg.Type),
			logger.String("target", target),
			logger.Error(err))
		return nil, dbError(err, "open", errors.PriorityHigh, "target", target)
	}

	if cfg.SQLite.Path == MemoryPath && !strings.EqualFold(cfg.Type, TypeMySQL) {
		// Every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, dbError(err, "open", errors.PriorityHigh)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := performAutoMigration(db, target); err != nil {
		return nil, err
	}

	return &DataStore{DB: db, log: log}, nil
}

func validateMySQLConfig(cfg *MySQLConfig) error {
	switch {
	case cfg.Host == "":
		return validationError("mysql host is required", "mysql.host", cfg.Host)
	case cfg.Port == "":
		return validationError("mysql port is required", "mysql.port", cfg.Port)
	case cfg.Database == "":
		return validationError("mysql database is required", "mysql.database", cfg.Database)
	case cfg.Username == "":
		return validationError("mysql username is required", "mysql.username", cfg.Username)
	}
	return nil
}

// performAutoMigration creates or updates all tables.
func performAutoMigration(db *gorm.DB, target string) error {
	start := time.Now()
	if err := db.AutoMigrate(models()...); err != nil {
		GetLogger().Error("Schema migration failed",
			logger.String("target", target),
			logger.Error(err))
		return dbError(err, "auto_migrate", errors.PriorityCritical, "target", target)
	}

	GetLogger().Debug("Schema migration complete",
		logger.String("target", target),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Close releases the database connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return dbError(errors.NewStd("database connection is not initialized"), "close", "")
	}

	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	if err := sqlDB.Close(); err != nil {
		ds.log.Error("Failed to close database", logger.Error(err))
		return dbError(err, "close", "")
	}
	return nil
}
