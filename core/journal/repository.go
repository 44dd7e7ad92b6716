package journal

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrBotUserNotFound = errors.New("telegram user not found")
)

// Repository is the persistence contract for extracted journal data.
type Repository interface {
	// ApplyFileResult persists one workbook's extraction output atomically:
	// groups/students/subjects are upserted and facts inserted in a single
	// transaction, so concurrent readers never observe a half-updated group.
	// Duplicate (student, subject, date) keys keep the stored record.
	ApplyFileResult(ctx context.Context, res FileResult) error

	// Update log: the per-file gate for the periodic worker.
	LastUpdate(ctx context.Context, fileName string) (time.Time, error) // zero time when never updated
	SetLastUpdate(ctx context.Context, fileName string, t time.Time) error

	CreateParseRun(ctx context.Context, run ParseRun) error
	ParseRuns(ctx context.Context, limit int) ([]ParseRun, error)

	Groups(ctx context.Context) ([]Group, error)
	GroupByID(ctx context.Context, id int) (Group, error)
	SubjectsByGroup(ctx context.Context, groupID int) ([]Subject, error)
	SubjectByID(ctx context.Context, id int) (Subject, error)
	StudentsByGroup(ctx context.Context, groupID int) ([]Student, error)
	// StudentByFIO matches the canonical form; groupID 0 searches all groups.
	StudentByFIO(ctx context.Context, fio string, groupID int) (Student, error)
	// GradeRows applies AND on the set GradeFilter fields,
	// ordered by student FIO then date.
	GradeRows(ctx context.Context, filter GradeFilter) ([]GradeRow, error)
	TopicsBySubject(ctx context.Context, subjectID int) ([]Topic, error)

	TelegramUserByID(ctx context.Context, telegramID int64) (TelegramUser, error)
	UpsertTelegramUser(ctx context.Context, tu TelegramUser) (TelegramUser, error)
}
