package pggath

import "time"

// GradeModel is one row per (lab, student); regrading overwrites it.
type GradeModel struct {
	Lab             string    `gorm:"primaryKey"`
	Student         string    `gorm:"primaryKey"`
	RunUuid         string    `gorm:"type:uuid;index;not null"`
	Total           int       `gorm:"not null"`
	MaxTotal        int       `gorm:"not null"`
	Status          int       `gorm:"not null"`
	SubmissionMarks int       `gorm:"not null"`
	TaskMarks       int       `gorm:"not null"`
	Late            bool      `gorm:"not null"`
	CommitSHA       string    `gorm:"not null"`
	CommitEpochMs   *int64
	RecordJSON      []byte    `gorm:"type:jsonb;not null"`
	GradedAt        time.Time `gorm:"not null"`
}

func (GradeModel) TableName() string {
	return "lab_grades"
}
