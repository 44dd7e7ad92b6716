package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AbsenceValue is the normalized marker stored for a recorded absence,
// regardless of which source spelling produced it.
const AbsenceValue = "пропуск"

// Parse run statuses
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

type (
	Group struct {
		ID   int    `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
	}

	Student struct {
		ID      int    `json:"id" db:"id"`
		FIO     string `json:"fio" db:"fio"` // canonical "Фамилия И.О." form
		GroupID int    `json:"group_id" db:"group_id"`
	}

	Subject struct {
		ID      int    `json:"id" db:"id"`
		Name    string `json:"name" db:"name"`
		GroupID int    `json:"group_id" db:"group_id"`
	}

	Grade struct {
		ID        int       `json:"id" db:"id"`
		StudentID int       `json:"student_id" db:"student_id"`
		SubjectID int       `json:"subject_id" db:"subject_id"`
		Date      time.Time `json:"date" db:"date"`
		Value     string    `json:"value" db:"value"`
	}

	Topic struct {
		ID        int        `json:"id" db:"id"`
		SubjectID int        `json:"subject_id" db:"subject_id"`
		Name      string     `json:"name" db:"name"`
		Hours     int        `json:"hours" db:"hours"`
		Date      *time.Time `json:"date,omitempty" db:"date"`
	}

	TelegramUser struct {
		ID           int       `json:"id" db:"id"`
		TelegramID   int64     `json:"telegram_id" db:"telegram_id"`
		Username     string    `json:"username" db:"username"`
		FirstName    string    `json:"first_name" db:"first_name"`
		LastName     string    `json:"last_name" db:"last_name"`
		FullName     string    `json:"full_name" db:"full_name"`
		RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
		IsRegistered bool      `json:"is_registered" db:"is_registered"`
	}

	ParseRun struct {
		ID             string    `json:"id" db:"id"`
		StartedAt      time.Time `json:"started_at" db:"started_at"`
		FinishedAt     time.Time `json:"finished_at" db:"finished_at"`
		FilesProcessed int       `json:"files_processed" db:"files_processed"`
		Status         string    `json:"status" db:"status"`
		Error          string    `json:"error,omitempty" db:"error"`
	}
)

// FactRecord is one extracted (student, subject, date, value) fact.
// Records are transient: produced by extraction, consumed by storage.
type FactRecord struct {
	Group      string    `json:"group"`
	Subject    string    `json:"subject"`
	StudentFIO string    `json:"student_fio"`
	Date       time.Time `json:"date"`
	Value      string    `json:"value"`
}

// Key identifies a fact within one extraction run; duplicates are dropped.
func (r FactRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.StudentFIO, r.Subject, r.Date.Format("2006-01-02"))
}

func (r FactRecord) IsAbsence() bool { return r.Value == AbsenceValue }

// TopicRecord is one extracted lesson topic.
type TopicRecord struct {
	Group   string     `json:"group"`
	Subject string     `json:"subject"`
	Name    string     `json:"name"`
	Hours   int        `json:"hours"`
	Date    *time.Time `json:"date,omitempty"`
}

// SubjectStats summarizes one subject's extracted facts.
type SubjectStats struct {
	Subject           string  `json:"subject"`
	TotalClasses      int     `json:"total_classes"` // unique dates
	Total             int     `json:"total"`
	Grades            int     `json:"grades_count"`
	Absences          int     `json:"absences_count"`
	AttendancePercent float64 `json:"attendance_percent"`
}

// FileResult aggregates everything extracted from one workbook file.
type FileResult struct {
	File   string        `json:"file"`
	Group  string        `json:"group"`
	Facts  []FactRecord  `json:"facts"`
	Topics []TopicRecord `json:"topics"`
	Stats  []SubjectStats `json:"stats"`
}

// GradeRow is the flat read model served to the API and the bot.
type GradeRow struct {
	StudentID   int       `json:"student_id" db:"student_id"`
	StudentFIO  string    `json:"student_fio" db:"student_fio"`
	SubjectID   int       `json:"subject_id" db:"subject_id"`
	SubjectName string    `json:"subject_name" db:"subject_name"`
	Date        time.Time `json:"date" db:"date"`
	Value       string    `json:"value" db:"value"`
}

func (r GradeRow) IsAbsence() bool { return r.Value == AbsenceValue }

// GradeFilter narrows GradeRows queries; zero fields are ignored.
type GradeFilter struct {
	GroupID   int
	SubjectID int
	StudentID int
	DateFrom  time.Time
	DateTo    time.Time
}

// RatingItem is one row of an attendance or grade ranking.
type RatingItem struct {
	Student           Student `json:"student"`
	Group             string  `json:"group,omitempty"`
	Total             int     `json:"total"`
	Grades            int     `json:"grades_count"`
	Absences          int     `json:"absences_count"`
	AttendancePercent float64 `json:"attendance_percent"`
	AverageGrade      float64 `json:"average_grade"`
}

// GradeNumbers extracts the numeric 5-scale marks carried by a stored value.
// A joint grade "N/M" yields both sides; absence markers and percentage
// grades yield nothing (percentages are excluded from 5-scale averages).
func GradeNumbers(value string) []int {
	if value == AbsenceValue {
		return nil
	}
	var nums []int
	for _, part := range strings.Split(value, "/") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if n >= 1 && n <= 5 {
			nums = append(nums, n)
		}
	}
	return nums
}
