package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-record-api/internal/models"
)

// RecordRepository persists student records in PostgreSQL. A record spans three
// tables; every Save writes all of them in one transaction guarded by the version column.
type RecordRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewRecordRepository creates a new repository instance.
func NewRecordRepository(db *sqlx.DB, observer QueryObserver) *RecordRepository {
	return &RecordRepository{db: db, observer: observer}
}

type recordRow struct {
	UserID                string    `db:"user_id"`
	CurrentSemester       int       `db:"current_semester"`
	CumulativeCredits     int       `db:"cumulative_credits"`
	CumulativeGradePoints int       `db:"cumulative_grade_points"`
	Version               int64     `db:"version"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

type semesterRow struct {
	SemesterNumber int       `db:"semester_number"`
	SGPA           float64   `db:"sgpa"`
	Subjects       []byte    `db:"subjects"`
	CompletedAt    time.Time `db:"completed_at"`
}

// Get loads a full record from a single repeatable-read snapshot.
func (r *RecordRepository) Get(ctx context.Context, userID string) (rec *models.StudentRecord, err error) {
	defer r.observe("record_get", time.Now())

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin record read tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row recordRow
	const recordQuery = `SELECT user_id, current_semester, cumulative_credits, cumulative_grade_points, version, created_at, updated_at FROM student_records WHERE user_id = $1`
	if err = tx.GetContext(ctx, &row, recordQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load student record: %w", err)
	}

	subjects := []models.Subject{}
	const subjectQuery = `SELECT code, name, credits FROM open_subjects WHERE user_id = $1 ORDER BY position`
	if err = tx.SelectContext(ctx, &subjects, subjectQuery, userID); err != nil {
		return nil, fmt.Errorf("load open subjects: %w", err)
	}

	var semesters []semesterRow
	const historyQuery = `SELECT semester_number, sgpa, subjects, completed_at FROM semester_records WHERE user_id = $1 ORDER BY semester_number`
	if err = tx.SelectContext(ctx, &semesters, historyQuery, userID); err != nil {
		return nil, fmt.Errorf("load semester history: %w", err)
	}

	history := make([]models.SemesterRecord, 0, len(semesters))
	for _, sem := range semesters {
		var results []models.SubjectResult
		if err = json.Unmarshal(sem.Subjects, &results); err != nil {
			return nil, fmt.Errorf("decode semester %d subjects: %w", sem.SemesterNumber, err)
		}
		history = append(history, models.SemesterRecord{
			SemesterNumber: sem.SemesterNumber,
			Subjects:       results,
			SGPA:           sem.SGPA,
			CompletedAt:    sem.CompletedAt.UTC(),
		})
	}

	return &models.StudentRecord{
		UserID:                row.UserID,
		CurrentSemester:       row.CurrentSemester,
		OpenSubjects:          subjects,
		History:               history,
		CumulativeCredits:     row.CumulativeCredits,
		CumulativeGradePoints: row.CumulativeGradePoints,
		Version:               row.Version,
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
	}, nil
}

// Create inserts a fresh record at version 1.
func (r *RecordRepository) Create(ctx context.Context, rec *models.StudentRecord) error {
	defer r.observe("record_create", time.Now())

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	const query = `INSERT INTO student_records (user_id, current_semester, cumulative_credits, cumulative_grade_points, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, 1, $5, $6) ON CONFLICT (user_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, rec.UserID, rec.CurrentSemester, rec.CumulativeCredits, rec.CumulativeGradePoints, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create student record: %w", err)
	}
	if affected == 0 {
		return ErrRecordExists
	}
	rec.Version = 1
	return nil
}

// Save writes the whole record if its version still matches the stored one.
// On success rec.Version is advanced to the committed version.
func (r *RecordRepository) Save(ctx context.Context, rec *models.StudentRecord) (err error) {
	defer r.observe("record_save", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record save tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateQuery = `UPDATE student_records SET current_semester = $1, cumulative_credits = $2, cumulative_grade_points = $3, version = version + 1, updated_at = $4 WHERE user_id = $5 AND version = $6`
	res, err := tx.ExecContext(ctx, updateQuery, rec.CurrentSemester, rec.CumulativeCredits, rec.CumulativeGradePoints, now, rec.UserID, rec.Version)
	if err != nil {
		return fmt.Errorf("update student record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student record: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	var stored int
	if err = tx.GetContext(ctx, &stored, `SELECT COUNT(*) FROM semester_records WHERE user_id = $1`, rec.UserID); err != nil {
		return fmt.Errorf("count semester history: %w", err)
	}
	if len(rec.History) < stored {
		return ErrHistoryRewrite
	}
	for _, sem := range rec.History[stored:] {
		payload, marshalErr := json.Marshal(sem.Subjects)
		if marshalErr != nil {
			return fmt.Errorf("encode semester %d subjects: %w", sem.SemesterNumber, marshalErr)
		}
		const insertSemester = `INSERT INTO semester_records (user_id, semester_number, sgpa, subjects, completed_at) VALUES ($1, $2, $3, $4, $5)`
		if _, err = tx.ExecContext(ctx, insertSemester, rec.UserID, sem.SemesterNumber, sem.SGPA, payload, sem.CompletedAt); err != nil {
			return fmt.Errorf("append semester %d: %w", sem.SemesterNumber, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM open_subjects WHERE user_id = $1`, rec.UserID); err != nil {
		return fmt.Errorf("clear open subjects: %w", err)
	}
	for i, subject := range rec.OpenSubjects {
		const insertSubject = `INSERT INTO open_subjects (user_id, code, name, credits, position) VALUES ($1, $2, $3, $4, $5)`
		if _, err = tx.ExecContext(ctx, insertSubject, rec.UserID, subject.Code, subject.Name, subject.Credits, i); err != nil {
			return fmt.Errorf("insert open subject %s: %w", subject.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit record save tx: %w", err)
	}

	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func (r *RecordRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}
