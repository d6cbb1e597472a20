package pggath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/programme-lv/labgrader/api"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres and migrates the grades table.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&GradeModel{}); err != nil {
		return nil, fmt.Errorf("migrate grades table: %w", err)
	}
	return db, nil
}

// Gatherer stores the final record of a run. Intermediate events are ignored.
type Gatherer struct {
	db  *gorm.DB
	err error
}

func New(db *gorm.DB) *Gatherer {
	return &Gatherer{db: db}
}

func (g *Gatherer) StartJob(student, repo, systemInfo string) {}

func (g *Gatherer) FinishProvenance(chosen api.CommitInfo, head *api.CommitInfo, late bool) {}

func (g *Gatherer) StartExecution(backend string) {}

func (g *Gatherer) FinishExecution(data api.ExecutionData) {}

func (g *Gatherer) FinishJob(rec *api.GradeRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Upsert(ctx, g.db, rec); err != nil {
		slog.Warn("failed to store grade", "student", rec.Student, "err", err)
		g.err = err
	}
}

// Err returns the error of the last FinishJob, if any.
func (g *Gatherer) Err() error {
	return g.err
}

// Upsert inserts the grade row or overwrites the previous grade of the same student.
func Upsert(ctx context.Context, db *gorm.DB, rec *api.GradeRecord) error {
	row, err := toModel(rec)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lab"}, {Name: "student"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func toModel(rec *api.GradeRecord) (GradeModel, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return GradeModel{}, fmt.Errorf("encode record: %w", err)
	}
	gradedAt, err := time.Parse(time.RFC3339Nano, rec.GradedAt)
	if err != nil {
		gradedAt = time.Now().UTC()
	}
	return GradeModel{
		Lab:             rec.Lab,
		Student:         rec.Student,
		RunUuid:         rec.RunUuid,
		Total:           rec.Total,
		MaxTotal:        rec.MaxTotal,
		Status:          rec.Status,
		SubmissionMarks: rec.SubmissionMarks,
		TaskMarks:       rec.TaskMarks,
		Late:            rec.Late,
		CommitSHA:       rec.Chosen.SHA,
		CommitEpochMs:   rec.Chosen.EpochMs,
		RecordJSON:      raw,
		GradedAt:        gradedAt,
	}, nil
}
