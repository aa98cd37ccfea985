package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/utils"
)

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// NewService opens the store selected by DB_DRIVER ("postgres" or "sqlite").
func NewService(logg *logger.Logger) (*Service, error) {
	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", logg))
	switch driver {
	case "postgres":
		return NewPostgresService(logg)
	case "sqlite":
		return NewSQLiteService(logg, utils.GetEnv("SQLITE_PATH", "data/eventforge.db", logg))
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func NewPostgresService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", logg)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", logg)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
	postgresName := utils.GetEnv("POSTGRES_NAME", "eventforge", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &Service{db: db, log: serviceLog, driver: "postgres"}, nil
}

// NewSQLiteService opens a file-backed sqlite store. Writes are serialised through a single connection.
func NewSQLiteService(logg *logger.Logger, path string) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService", "path", path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: gormLog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return &Service{db: db, log: serviceLog, driver: "sqlite"}, nil
}

func gormLog() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto-migration")
	return AutoMigrateAll(s.db)
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
