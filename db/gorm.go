package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"musicapp/config"
	"musicapp/logger"
	"musicapp/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Connect opens the configured database, applies pool settings and migrates
// the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	gdb, err := Open(cfg.DBDriver, cfg.DatabaseURL, level)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrateModels(gdb); err != nil {
		CloseGormDB(gdb)
		return nil, err
	}
	return gdb, nil
}

// Open connects to a database without migrating it.
func Open(driver, dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		normalized, err := normalizeMySQLDSN(dsn)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(normalized)
	case DriverSQLite, "":
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(dsn + "?_foreign_keys=on&_journal_mode=WAL")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		// Referential cleanup (favorites, uploader) is done by the services.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == DriverMySQL {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("Connected to database", logger.String("driver", driver))
	return gdb, nil
}

// normalizeMySQLDSN validates the DSN and forces the options the models rely on.
func normalizeMySQLDSN(dsn string) (string, error) {
	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	parsed.ParseTime = true
	// Report matched rather than changed rows so an update that writes
	// identical values is not mistaken for a missing row.
	parsed.ClientFoundRows = true
	if parsed.Params == nil {
		parsed.Params = map[string]string{}
	}
	if _, ok := parsed.Params["charset"]; !ok {
		parsed.Params["charset"] = "utf8mb4"
	}
	logger.Info("Using MySQL database",
		logger.String("addr", parsed.Addr),
		logger.String("database", parsed.DBName),
		logger.String("user", parsed.User))
	return parsed.FormatDSN(), nil
}

// AutoMigrateModels migrates every model the application persists.
func AutoMigrateModels(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.User{}, &model.Song{}, &model.Favorite{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}

// CloseGormDB closes the underlying connection pool.
func CloseGormDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
