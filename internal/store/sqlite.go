package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the SQLite-backed persistence layer for load history,
// plans, and events.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func dayString(t time.Time) string {
	return types.Day(t).Format(types.DateLayout)
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(types.DateLayout, s)
}

// --- Daily load history ---

// LatestDailyLoad returns the most recent persisted day for the athlete, or
// ErrNotFound for an athlete with no history yet.
func (s *SQLiteStore) LatestDailyLoad(ctx context.Context, athleteID string) (*types.DailyLoad, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, day, ctl, atl, tsb, tss
		FROM daily_loads
		WHERE athlete_id = ?
		ORDER BY day DESC
		LIMIT 1
	`, athleteID)

	dl, err := scanDailyLoad(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan daily load: %w", err)
	}
	return dl, nil
}

// AppendDailyLoad inserts one day of history. The (athlete, day) primary key
// makes duplicate days an ErrConflict, which is what enforces the
// one-record-per-day invariant at the storage boundary.
func (s *SQLiteStore) AppendDailyLoad(ctx context.Context, day types.DailyLoad) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_loads (athlete_id, day, ctl, atl, tsb, tss, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, day.AthleteID, dayString(day.Date), day.CTL, day.ATL, day.TSB, day.TSS,
		time.Now().UTC().Format(time.RFC3339))

	if isUniqueViolation(err) {
		return fmt.Errorf("daily load for %s on %s: %w", day.AthleteID, dayString(day.Date), ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert daily load: %w", err)
	}
	return nil
}

// DailyLoadRange returns the athlete's history between from and to inclusive,
// in date order.
func (s *SQLiteStore) DailyLoadRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.DailyLoad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT athlete_id, day, ctl, atl, tsb, tss
		FROM daily_loads
		WHERE athlete_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, athleteID, dayString(from), dayString(to))
	if err != nil {
		return nil, fmt.Errorf("query daily loads: %w", err)
	}
	defer rows.Close()

	var out []types.DailyLoad
	for rows.Next() {
		dl, err := scanDailyLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily load: %w", err)
		}
		out = append(out, *dl)
	}
	return out, rows.Err()
}

// ListAthleteIDs returns every athlete with any load history.
func (s *SQLiteStore) ListAthleteIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT athlete_id FROM daily_loads ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("query athletes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan athlete id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDailyLoad(scanner interface{ Scan(...any) error }) (*types.DailyLoad, error) {
	var dl types.DailyLoad
	var day string
	if err := scanner.Scan(&dl.AthleteID, &day, &dl.CTL, &dl.ATL, &dl.TSB, &dl.TSS); err != nil {
		return nil, err
	}
	d, err := parseDay(day)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", day, err)
	}
	dl.Date = d
	return &dl, nil
}

// --- FTP history ---

// SetFTP records the athlete's FTP effective from the given date. Setting
// the same effective date twice overwrites (an FTP test result correction).
func (s *SQLiteStore) SetFTP(ctx context.Context, athleteID string, effective time.Time, watts int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ftp_history (athlete_id, effective_date, watts)
		VALUES (?, ?, ?)
		ON CONFLICT(athlete_id, effective_date) DO UPDATE SET watts = excluded.watts
	`, athleteID, dayString(effective), watts)
	if err != nil {
		return fmt.Errorf("set ftp: %w", err)
	}
	return nil
}

// FTPOn returns the FTP valid on the given date: the most recent value whose
// effective date is at or before it. ErrNotFound when the athlete had no FTP
// on record yet.
func (s *SQLiteStore) FTPOn(ctx context.Context, athleteID string, date time.Time) (int, error) {
	var watts int
	err := s.db.QueryRowContext(ctx, `
		SELECT watts FROM ftp_history
		WHERE athlete_id = ? AND effective_date <= ?
		ORDER BY effective_date DESC
		LIMIT 1
	`, athleteID, dayString(date)).Scan(&watts)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query ftp: %w", err)
	}
	return watts, nil
}

// --- Training plans ---

// CreatePlan inserts a plan and all its days in one transaction.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *types.TrainingPlan, days []types.PlanDay) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO training_plans (id, athlete_id, goal, template_id, start_date, end_date,
			duration_weeks, status, progress_percent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, plan.ID, plan.AthleteID, plan.Goal, plan.TemplateID,
		dayString(plan.StartDate), dayString(plan.EndDate), plan.DurationWeeks,
		string(plan.Status), plan.ProgressPercent,
		plan.CreatedAt.Format(time.RFC3339), plan.UpdatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("plan %s: %w", plan.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO plan_days (id, plan_id, day, target_tss, workout_ref, state,
			actual_tss, actual_duration_min, notes, compliance_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare plan day insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		_, err := stmt.ExecContext(ctx, d.ID, d.PlanID, dayString(d.Date), d.TargetTSS,
			d.WorkoutRef, string(d.State), d.ActualTSS, d.ActualDurationMin, d.Notes,
			d.ComplianceScore, d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert plan day: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by id.
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (*types.TrainingPlan, error) {
	row := s.db.QueryRowContext(ctx, selectPlan+` WHERE id = ?`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns all of the athlete's plans, newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context, athleteID string) ([]types.TrainingPlan, error) {
	rows, err := s.db.QueryContext(ctx, selectPlan+` WHERE athlete_id = ? ORDER BY created_at DESC`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, *plan)
	}
	return out, rows.Err()
}

// ActivePlan returns the athlete's single active plan, or ErrNotFound.
func (s *SQLiteStore) ActivePlan(ctx context.Context, athleteID string) (*types.TrainingPlan, error) {
	row := s.db.QueryRowContext(ctx, selectPlan+` WHERE athlete_id = ? AND status = 'active' LIMIT 1`, athleteID)
	plan, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	return plan, nil
}

// SetPlanStatus updates a plan's lifecycle status.
func (s *SQLiteStore) SetPlanStatus(ctx context.Context, id string, status types.PlanStatus) error {
	return s.updatePlanField(ctx, id, `status`, string(status))
}

// SetPlanProgress writes the recomputed progress percentage back to the plan.
func (s *SQLiteStore) SetPlanProgress(ctx context.Context, id string, percent float64) error {
	return s.updatePlanField(ctx, id, `progress_percent`, percent)
}

func (s *SQLiteStore) updatePlanField(ctx context.Context, id, column string, value any) error {
	// column is always a literal from the two callers above.
	result, err := s.db.ExecContext(ctx,
		`UPDATE training_plans SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update plan %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectPlan = `
	SELECT id, athlete_id, goal, template_id, start_date, end_date,
	       duration_weeks, status, progress_percent, created_at, updated_at
	FROM training_plans`

func scanPlan(scanner interface{ Scan(...any) error }) (*types.TrainingPlan, error) {
	var p types.TrainingPlan
	var start, end, created, updated, status string
	err := scanner.Scan(&p.ID, &p.AthleteID, &p.Goal, &p.TemplateID, &start, &end,
		&p.DurationWeeks, &status, &p.ProgressPercent, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Status = types.PlanStatus(status)
	if p.StartDate, err = parseDay(start); err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	if p.EndDate, err = parseDay(end); err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		p.UpdatedAt = t
	}
	return &p, nil
}

// --- Plan days ---

// GetPlanDay retrieves a plan day by id.
func (s *SQLiteStore) GetPlanDay(ctx context.Context, id string) (*types.PlanDay, error) {
	row := s.db.QueryRowContext(ctx, selectPlanDay+` WHERE id = ?`, id)
	day, err := scanPlanDay(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan plan day: %w", err)
	}
	return day, nil
}

// ListPlanDays returns all days of a plan in date order.
func (s *SQLiteStore) ListPlanDays(ctx context.Context, planID string) ([]types.PlanDay, error) {
	rows, err := s.db.QueryContext(ctx, selectPlanDay+` WHERE plan_id = ? ORDER BY day ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("query plan days: %w", err)
	}
	defer rows.Close()

	var out []types.PlanDay
	for rows.Next() {
		day, err := scanPlanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan day: %w", err)
		}
		out = append(out, *day)
	}
	return out, rows.Err()
}

// UpdatePlanDay persists a lifecycle transition on an existing day.
func (s *SQLiteStore) UpdatePlanDay(ctx context.Context, day types.PlanDay) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE plan_days
		SET day = ?, target_tss = ?, workout_ref = ?, state = ?,
		    actual_tss = ?, actual_duration_min = ?, notes = ?, compliance_score = ?, updated_at = ?
		WHERE id = ?
	`, dayString(day.Date), day.TargetTSS, day.WorkoutRef, string(day.State),
		day.ActualTSS, day.ActualDurationMin, day.Notes, day.ComplianceScore,
		time.Now().UTC().Format(time.RFC3339), day.ID)
	if err != nil {
		return fmt.Errorf("update plan day: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertPlanDay adds a single day to an existing plan (reschedule target).
func (s *SQLiteStore) InsertPlanDay(ctx context.Context, day types.PlanDay) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_days (id, plan_id, day, target_tss, workout_ref, state,
			actual_tss, actual_duration_min, notes, compliance_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, day.ID, day.PlanID, dayString(day.Date), day.TargetTSS, day.WorkoutRef, string(day.State),
		day.ActualTSS, day.ActualDurationMin, day.Notes, day.ComplianceScore,
		day.CreatedAt.Format(time.RFC3339), day.UpdatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return fmt.Errorf("plan day %s: %w", day.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert plan day: %w", err)
	}
	return nil
}

const selectPlanDay = `
	SELECT id, plan_id, day, target_tss, workout_ref, state,
	       actual_tss, actual_duration_min, notes, compliance_score, created_at, updated_at
	FROM plan_days`

func scanPlanDay(scanner interface{ Scan(...any) error }) (*types.PlanDay, error) {
	var d types.PlanDay
	var day, state, created, updated string
	var actualTSS, actualDuration sql.NullInt64
	var compliance sql.NullFloat64
	err := scanner.Scan(&d.ID, &d.PlanID, &day, &d.TargetTSS, &d.WorkoutRef, &state,
		&actualTSS, &actualDuration, &d.Notes, &compliance, &created, &updated)
	if err != nil {
		return nil, err
	}
	d.State = types.DayState(state)
	if d.Date, err = parseDay(day); err != nil {
		return nil, fmt.Errorf("parse day: %w", err)
	}
	if actualTSS.Valid {
		v := int(actualTSS.Int64)
		d.ActualTSS = &v
	}
	if actualDuration.Valid {
		v := int(actualDuration.Int64)
		d.ActualDurationMin = &v
	}
	if compliance.Valid {
		v := compliance.Float64
		d.ComplianceScore = &v
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		d.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		d.UpdatedAt = t
	}
	return &d, nil
}

// --- Events ---

// CreateEvent records an external race or goal date.
func (s *SQLiteStore) CreateEvent(ctx context.Context, ev types.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, athlete_id, day, priority, name)
		VALUES (?, ?, ?, ?, ?)
	`, ev.ID, ev.AthleteID, dayString(ev.Date), string(ev.Priority), ev.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %s: %w", ev.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventsInRange returns the athlete's events between from and to inclusive.
func (s *SQLiteStore) EventsInRange(ctx context.Context, athleteID string, from, to time.Time) ([]types.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, athlete_id, day, priority, name
		FROM events
		WHERE athlete_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, athleteID, dayString(from), dayString(to))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var ev types.Event
		var day, priority string
		if err := rows.Scan(&ev.ID, &ev.AthleteID, &day, &priority, &ev.Name); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Priority = types.EventPriority(priority)
		if ev.Date, err = parseDay(day); err != nil {
			return nil, fmt.Errorf("parse event day: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
