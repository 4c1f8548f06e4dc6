// Package store persists a catalog of pipeline runs and their analysis
// outcomes, so regenerated experiment versions remain queryable. Backed by
// sqlite for local use or postgres for shared deployments.
package store

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/smata-project/evalgen/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides persistence for the run catalog.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	CreatePipelineRun(ctx context.Context, run *PipelineRun) error
	UpdatePipelineRunStatus(ctx context.Context, id uint, status string) error
	ListPipelineRuns(ctx context.Context) ([]PipelineRun, error)
	LatestPipelineRun(ctx context.Context) (*PipelineRun, error)

	CreateAnalysisRecords(ctx context.Context, records []AnalysisRecord) error
	ListAnalysisRecords(ctx context.Context, pipelineRunID uint) ([]AnalysisRecord, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.StoreConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(log logrus.FieldLogger, cfg *config.StoreConfig) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&PipelineRun{},
		&AnalysisRecord{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Run catalog connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

func (s *store) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("creating pipeline run: %w", err)
	}

	return nil
}

func (s *store) UpdatePipelineRunStatus(ctx context.Context, id uint, status string) error {
	if err := s.db.WithContext(ctx).
		Model(&PipelineRun{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("updating pipeline run status: %w", err)
	}

	return nil
}

func (s *store) ListPipelineRuns(ctx context.Context) ([]PipelineRun, error) {
	var runs []PipelineRun
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing pipeline runs: %w", err)
	}

	return runs, nil
}

func (s *store) LatestPipelineRun(ctx context.Context) (*PipelineRun, error) {
	var run PipelineRun
	if err := s.db.WithContext(ctx).
		Order("id DESC").
		First(&run).Error; err != nil {
		return nil, fmt.Errorf("getting latest pipeline run: %w", err)
	}

	return &run, nil
}

func (s *store) CreateAnalysisRecords(ctx context.Context, records []AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("creating analysis records: %w", err)
	}

	return nil
}

func (s *store) ListAnalysisRecords(ctx context.Context, pipelineRunID uint) ([]AnalysisRecord, error) {
	var records []AnalysisRecord
	if err := s.db.WithContext(ctx).
		Where("pipeline_run_id = ?", pipelineRunID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing analysis records: %w", err)
	}

	return records, nil
}
