package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gremuiv/core/journal"
)

type journalRepository struct {
	db *sqlx.DB
}

var _ journal.Repository = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository(db *sql.DB) *journalRepository {
	return &journalRepository{db: sqlx.NewDb(db, "postgres")}
}

// ApplyFileResult persists one workbook's output in a single transaction.
// Grades insert with ON CONFLICT DO NOTHING so the stored record wins over
// later duplicates of the same (student, subject, date) key.
func (repo *journalRepository) ApplyFileResult(ctx context.Context, res journal.FileResult) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	groupID, err := upsertGroup(ctx, tx, res.Group)
	if err != nil {
		return err
	}

	students := make(map[string]int)
	subjects := make(map[string]int)

	studentID := func(fio string) (int, error) {
		if id, ok := students[fio]; ok {
			return id, nil
		}
		var id int
		err := tx.GetContext(ctx, &id,
			`INSERT INTO students (fio, group_id) VALUES ($1, $2)
			 ON CONFLICT (fio, group_id) DO UPDATE SET fio = EXCLUDED.fio
			 RETURNING id`, fio, groupID)
		if err != nil {
			return 0, errors.Wrapf(err, "upserting student %q", fio)
		}
		students[fio] = id
		return id, nil
	}
	subjectID := func(name string) (int, error) {
		if id, ok := subjects[name]; ok {
			return id, nil
		}
		var id int
		err := tx.GetContext(ctx, &id,
			`INSERT INTO subjects (name, group_id) VALUES ($1, $2)
			 ON CONFLICT (name, group_id) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, name, groupID)
		if err != nil {
			return 0, errors.Wrapf(err, "upserting subject %q", name)
		}
		subjects[name] = id
		return id, nil
	}

	for _, fact := range res.Facts {
		stID, err := studentID(fact.StudentFIO)
		if err != nil {
			return err
		}
		subID, err := subjectID(fact.Subject)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO grades (student_id, subject_id, date, value) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (student_id, subject_id, date) DO NOTHING`,
			stID, subID, fact.Date, fact.Value)
		if err != nil {
			return errors.Wrap(err, "inserting grade")
		}
	}

	for _, topic := range res.Topics {
		subID, err := subjectID(topic.Subject)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO topics (subject_id, name, hours, date) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (subject_id, name) DO UPDATE SET hours = EXCLUDED.hours, date = EXCLUDED.date`,
			subID, topic.Name, topic.Hours, topic.Date)
		if err != nil {
			return errors.Wrap(err, "upserting topic")
		}
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

func upsertGroup(ctx context.Context, tx *sqlx.Tx, name string) (int, error) {
	var id int
	err := tx.GetContext(ctx, &id,
		`INSERT INTO groups (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`, name)
	return id, errors.Wrapf(err, "upserting group %q", name)
}

func (repo *journalRepository) LastUpdate(ctx context.Context, fileName string) (time.Time, error) {
	var t time.Time
	err := repo.db.GetContext(ctx, &t, `SELECT updated_at FROM update_log WHERE file_name = $1`, fileName)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return t, errors.Wrap(err, "reading update log")
}

func (repo *journalRepository) SetLastUpdate(ctx context.Context, fileName string, t time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO update_log (file_name, updated_at) VALUES ($1, $2)
		 ON CONFLICT (file_name) DO UPDATE SET updated_at = EXCLUDED.updated_at`, fileName, t)
	return errors.Wrap(err, "stamping update log")
}

func (repo *journalRepository) CreateParseRun(ctx context.Context, run journal.ParseRun) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO parse_runs (id, started_at, finished_at, files_processed, status, error)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.StartedAt, run.FinishedAt, run.FilesProcessed, run.Status, run.Error)
	return errors.Wrap(err, "inserting parse run")
}

func (repo *journalRepository) ParseRuns(ctx context.Context, limit int) ([]journal.ParseRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := make([]journal.ParseRun, 0)
	err := repo.db.SelectContext(ctx, &runs,
		`SELECT * FROM parse_runs ORDER BY started_at DESC LIMIT $1`, limit)
	return runs, errors.Wrap(err, "querying parse runs")
}

func (repo *journalRepository) Groups(ctx context.Context) ([]journal.Group, error) {
	groups := make([]journal.Group, 0)
	err := repo.db.SelectContext(ctx, &groups, `SELECT * FROM groups ORDER BY name`)
	return groups, errors.Wrap(err, "querying groups")
}

func (repo *journalRepository) GroupByID(ctx context.Context, id int) (journal.Group, error) {
	var grp journal.Group
	err := repo.db.GetContext(ctx, &grp, `SELECT * FROM groups WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return grp, journal.ErrGroupNotFound
	}
	return grp, errors.Wrap(err, "querying group")
}

func (repo *journalRepository) SubjectsByGroup(ctx context.Context, groupID int) ([]journal.Subject, error) {
	subjects := make([]journal.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects,
		`SELECT * FROM subjects WHERE group_id = $1 ORDER BY name`, groupID)
	return subjects, errors.Wrap(err, "querying subjects")
}

func (repo *journalRepository) SubjectByID(ctx context.Context, id int) (journal.Subject, error) {
	var sub journal.Subject
	err := repo.db.GetContext(ctx, &sub, `SELECT * FROM subjects WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return sub, journal.ErrSubjectNotFound
	}
	return sub, errors.Wrap(err, "querying subject")
}

func (repo *journalRepository) StudentsByGroup(ctx context.Context, groupID int) ([]journal.Student, error) {
	students := make([]journal.Student, 0)
	err := repo.db.SelectContext(ctx, &students,
		`SELECT * FROM students WHERE group_id = $1 ORDER BY fio`, groupID)
	return students, errors.Wrap(err, "querying students")
}

func (repo *journalRepository) StudentByFIO(ctx context.Context, fio string, groupID int) (journal.Student, error) {
	q := `SELECT * FROM students WHERE fio = $1`
	args := []interface{}{fio}
	if groupID != 0 {
		q += ` AND group_id = $2`
		args = append(args, groupID)
	}
	q += ` ORDER BY id LIMIT 1`

	var st journal.Student
	err := repo.db.GetContext(ctx, &st, q, args...)
	if err == sql.ErrNoRows {
		return st, journal.ErrStudentNotFound
	}
	return st, errors.Wrap(err, "querying student")
}

func (repo *journalRepository) GradeRows(ctx context.Context, filter journal.GradeFilter) ([]journal.GradeRow, error) {
	q := `SELECT g.student_id, st.fio AS student_fio, g.subject_id, sub.name AS subject_name, g.date, g.value
	      FROM grades g
	      JOIN students st ON st.id = g.student_id
	      JOIN subjects sub ON sub.id = g.subject_id
	      WHERE true`
	var args []interface{}
	and := func(clause string, arg interface{}) {
		args = append(args, arg)
		q += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if filter.GroupID != 0 {
		and("st.group_id =", filter.GroupID)
	}
	if filter.SubjectID != 0 {
		and("g.subject_id =", filter.SubjectID)
	}
	if filter.StudentID != 0 {
		and("g.student_id =", filter.StudentID)
	}
	if !filter.DateFrom.IsZero() {
		and("g.date >=", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		and("g.date <=", filter.DateTo)
	}
	q += ` ORDER BY st.fio, g.date`

	rows := make([]journal.GradeRow, 0)
	err := repo.db.SelectContext(ctx, &rows, q, args...)
	return rows, errors.Wrap(err, "querying grade rows")
}

func (repo *journalRepository) TopicsBySubject(ctx context.Context, subjectID int) ([]journal.Topic, error) {
	topics := make([]journal.Topic, 0)
	err := repo.db.SelectContext(ctx, &topics,
		`SELECT * FROM topics WHERE subject_id = $1 ORDER BY date NULLS LAST, id`, subjectID)
	return topics, errors.Wrap(err, "querying topics")
}

func (repo *journalRepository) TelegramUserByID(ctx context.Context, telegramID int64) (journal.TelegramUser, error) {
	var tu journal.TelegramUser
	err := repo.db.GetContext(ctx, &tu, `SELECT * FROM telegram_users WHERE telegram_id = $1`, telegramID)
	if err == sql.ErrNoRows {
		return tu, journal.ErrBotUserNotFound
	}
	return tu, errors.Wrap(err, "querying telegram user")
}

func (repo *journalRepository) UpsertTelegramUser(ctx context.Context, tu journal.TelegramUser) (journal.TelegramUser, error) {
	err := repo.db.GetContext(ctx, &tu,
		`INSERT INTO telegram_users (telegram_id, username, first_name, last_name, full_name, registered_at, is_registered)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (telegram_id) DO UPDATE SET
		     username = EXCLUDED.username,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     full_name = EXCLUDED.full_name,
		     registered_at = EXCLUDED.registered_at,
		     is_registered = EXCLUDED.is_registered
		 RETURNING *`,
		tu.TelegramID, tu.Username, tu.FirstName, tu.LastName, tu.FullName, tu.RegisteredAt, tu.IsRegistered)
	return tu, errors.Wrap(err, "upserting telegram user")
}
