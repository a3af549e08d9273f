package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"research-assistant/server/research"
)

// runRecord is the database row for a run. Structured fields are stored
// as JSON text so the schema stays stable as the domain model grows.
type runRecord struct {
	ID          string `gorm:"primaryKey;size:32"`
	Status      string `gorm:"size:16;index"`
	Progress    int
	Message     string `gorm:"type:text"`
	Config      string `gorm:"type:text"`
	Analysts    string `gorm:"type:text"`
	Sections    string `gorm:"type:text"`
	FinalReport string `gorm:"type:text"`
	Error       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (runRecord) TableName() string { return "research_runs" }

// PostgresStore is a RunStore backed by Postgres via gorm.
type PostgresStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewPostgresStore opens the database, configures the connection pool
// and migrates the runs table.
func NewPostgresStore(dsn string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&runRecord{}); err != nil {
		return nil, fmt.Errorf("migrate runs table: %w", err)
	}

	return &PostgresStore{
		db:  db,
		log: log.With().Str("component", "postgres-store").Logger(),
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, cfg research.Config) (*Run, error) {
	id, err := newRunID()
	if err != nil {
		return nil, err
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal run config: %w", err)
	}

	now := time.Now().UTC()
	rec := runRecord{
		ID:        id,
		Status:    string(StatusPending),
		Config:    string(cfgJSON),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	return recordToRun(&rec)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Run, error) {
	var rec runRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return recordToRun(&rec)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Run, error) {
	var recs []runRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]*Run, 0, len(recs))
	for i := range recs {
		run, err := recordToRun(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status":   string(StatusRunning),
		"progress": progress,
		"message":  message,
	})
}

func (s *PostgresStore) SetAnalysts(ctx context.Context, id string, analysts []research.Analyst) error {
	data, err := json.Marshal(analysts)
	if err != nil {
		return fmt.Errorf("marshal analysts: %w", err)
	}
	return s.updateColumns(ctx, id, map[string]any{"analysts": string(data)})
}

func (s *PostgresStore) AddSection(ctx context.Context, id, section string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec runRecord
		err := tx.First(&rec, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load run: %w", err)
		}

		sections, err := unmarshalStrings(rec.Sections)
		if err != nil {
			return err
		}
		sections = append(sections, section)
		data, err := json.Marshal(sections)
		if err != nil {
			return fmt.Errorf("marshal sections: %w", err)
		}

		return tx.Model(&runRecord{}).Where("id = ?", id).
			Updates(map[string]any{"sections": string(data), "updated_at": time.Now().UTC()}).Error
	})
}

func (s *PostgresStore) Complete(ctx context.Context, id string, results *research.Results) error {
	analysts, err := json.Marshal(results.Analysts)
	if err != nil {
		return fmt.Errorf("marshal analysts: %w", err)
	}
	sections, err := json.Marshal(results.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	return s.updateColumns(ctx, id, map[string]any{
		"status":       string(StatusCompleted),
		"progress":     100,
		"message":      "Research completed successfully!",
		"analysts":     string(analysts),
		"sections":     string(sections),
		"final_report": results.FinalReport,
	})
}

func (s *PostgresStore) Fail(ctx context.Context, id, message string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status": string(StatusFailed),
		"error":  message,
	})
}

func (s *PostgresStore) updateColumns(ctx context.Context, id string, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&runRecord{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func recordToRun(rec *runRecord) (*Run, error) {
	run := &Run{
		ID:          rec.ID,
		Status:      Status(rec.Status),
		Progress:    rec.Progress,
		Message:     rec.Message,
		FinalReport: rec.FinalReport,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}

	if rec.Config != "" {
		if err := json.Unmarshal([]byte(rec.Config), &run.Config); err != nil {
			return nil, fmt.Errorf("unmarshal run config: %w", err)
		}
	}
	if rec.Analysts != "" {
		if err := json.Unmarshal([]byte(rec.Analysts), &run.Analysts); err != nil {
			return nil, fmt.Errorf("unmarshal analysts: %w", err)
		}
	}
	var err error
	if run.Sections, err = unmarshalStrings(rec.Sections); err != nil {
		return nil, err
	}
	return run, nil
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	return out, nil
}
