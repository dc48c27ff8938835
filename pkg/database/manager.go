// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"
	"time"

	"github.com/go-arcade/feedback/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Manager owns the relational connection used by every repository
type Manager interface {
	// Primary returns the primary database connection
	Primary() *gorm.DB

	// Driver returns the configured driver name
	Driver() string

	// Close closes all database connections
	Close() error
}

type managerImpl struct {
	db     *gorm.DB
	driver string
}

func (m *managerImpl) Primary() *gorm.DB {
	return m.db
}

func (m *managerImpl) Driver() string {
	return m.driver
}

func (m *managerImpl) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", m.driver, err)
	}
	return nil
}

// NewManager opens the configured driver and returns a Manager
func NewManager(cfg Database) (Manager, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMySQL
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverMySQL:
		db, err = newMySQLConnection(cfg.MySQL, cfg)
	case DriverSQLite:
		db, err = newSQLiteConnection(cfg.SQLite, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", driver, err)
	}

	log.Infow("database connected", "driver", driver, "tablePrefix", cfg.Prefix())
	return &managerImpl{db: db, driver: driver}, nil
}

// GormConfig returns the gorm configuration shared by every driver
func GormConfig(cfg Database) *gorm.Config {
	logConfig := gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}

	var gormLogger gormlogger.Interface
	if cfg.OutPut {
		logConfig.LogLevel = gormlogger.Info
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Info)
	} else {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	return &gorm.Config{
		Logger: gormLogger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   cfg.Prefix(),
			SingularTable: true,
		},
	}
}

// newMySQLConnection creates a MySQL connection using GORM with DBResolver support
func newMySQLConnection(mysqlCfg MySQLConfig, commonCfg Database) (*gorm.DB, error) {
	defaultDSN := buildMySQLDSN(mysqlCfg.User, mysqlCfg.Password, mysqlCfg.Host, mysqlCfg.Port, mysqlCfg.DBName)

	db, err := gorm.Open(mysql.Open(defaultDSN), GormConfig(commonCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	hasPrimary := len(mysqlCfg.Primary) > 0
	hasReplicas := len(mysqlCfg.Replicas) > 0

	if hasPrimary || hasReplicas {
		resolverConfig := dbresolver.Config{
			TraceResolverMode: commonCfg.OutPut,
		}
		if hasPrimary {
			primaryDialectors, err := buildDialectors(mysqlCfg.Primary)
			if err != nil {
				return nil, fmt.Errorf("failed to build primary dialectors: %w", err)
			}
			resolverConfig.Sources = primaryDialectors
		}
		if hasReplicas {
			replicasDialectors, err := buildDialectors(mysqlCfg.Replicas)
			if err != nil {
				return nil, fmt.Errorf("failed to build replicas dialectors: %w", err)
			}
			resolverConfig.Replicas = replicasDialectors
		}

		err = db.Use(dbresolver.Register(resolverConfig).
			SetConnMaxIdleTime(GetConnMaxIdleTime(commonCfg.MaxIdleTime)).
			SetConnMaxLifetime(GetConnMaxLifetime(commonCfg.MaxLifetime)).
			SetMaxIdleConns(commonCfg.MaxIdleConns).
			SetMaxOpenConns(commonCfg.MaxOpenConns))
		if err != nil {
			return nil, fmt.Errorf("failed to register DBResolver plugin: %w", err)
		}
		log.Info("MySQL read-write separation enabled")
	}

	if err := configurePool(db, commonCfg); err != nil {
		return nil, err
	}
	return db, nil
}

// newSQLiteConnection opens a SQLite database, mostly for single-node installs and tests
func newSQLiteConnection(sqliteCfg SQLiteConfig, commonCfg Database) (*gorm.DB, error) {
	path := sqliteCfg.Path
	if path == "" {
		path = "feedback.db"
	}
	db, err := gorm.Open(sqlite.Open(path), GormConfig(commonCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}
	// sqlite serializes writers, and an in-memory database lives only as long as its connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func configurePool(db *gorm.DB, cfg Database) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
	sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
