package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/gremuiv/core/journal"
	inmemdb "github.com/trezcool/gremuiv/storage/database/inmem"
)

func day(d int) time.Time {
	return time.Date(2023, time.September, d, 0, 0, 0, 0, time.UTC)
}

func seededService(t *testing.T) (*journal.Service, journal.Repository) {
	t.Helper()
	repo := inmemdb.NewJournalRepository()
	svc := journal.NewService(repo)

	res := journal.FileResult{
		File:  "Испп 32.xlsx",
		Group: "32",
		Facts: []journal.FactRecord{
			{Group: "32", Subject: "Химия", StudentFIO: "Иванов И.И.", Date: day(4), Value: "5"},
			{Group: "32", Subject: "Химия", StudentFIO: "Иванов И.И.", Date: day(6), Value: "3/5"},
			{Group: "32", Subject: "Химия", StudentFIO: "Петров П.П.", Date: day(4), Value: journal.AbsenceValue},
			{Group: "32", Subject: "Химия", StudentFIO: "Петров П.П.", Date: day(6), Value: "3"},
			{Group: "32", Subject: "Физика", StudentFIO: "Иванов И.И.", Date: day(5), Value: journal.AbsenceValue},
		},
		Topics: []journal.TopicRecord{
			{Group: "32", Subject: "Химия", Name: "Введение", Hours: 2},
		},
	}
	if err := svc.ApplyFileResult(context.Background(), res, day(7)); err != nil {
		t.Fatalf("ApplyFileResult() error = %v", err)
	}
	return svc, repo
}

func findSubject(t *testing.T, svc *journal.Service, groupID int, name string) journal.Subject {
	t.Helper()
	subjects, err := svc.Subjects(context.Background(), groupID)
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range subjects {
		if sub.Name == name {
			return sub
		}
	}
	t.Fatalf("subject %q not found", name)
	return journal.Subject{}
}

func TestService_GradeGrid(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	groups, err := svc.Groups(ctx)
	if err != nil || len(groups) != 1 {
		t.Fatalf("Groups() = %v, %v; want one group", groups, err)
	}
	sub := findSubject(t, svc, groups[0].ID, "Химия")

	grid, err := svc.GradeGrid(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GradeGrid() error = %v", err)
	}

	wantDates := []string{"2023-09-04", "2023-09-06"}
	if len(grid.Dates) != 2 || grid.Dates[0] != wantDates[0] || grid.Dates[1] != wantDates[1] {
		t.Errorf("Dates = %v, want %v", grid.Dates, wantDates)
	}
	if len(grid.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(grid.Rows))
	}
	// rows come sorted by FIO
	if grid.Rows[0].Student.FIO != "Иванов И.И." || grid.Rows[1].Student.FIO != "Петров П.П." {
		t.Errorf("row order = %q, %q", grid.Rows[0].Student.FIO, grid.Rows[1].Student.FIO)
	}
	if v := grid.Rows[1].Values["2023-09-04"]; v != journal.AbsenceValue {
		t.Errorf("Петров on 04.09 = %q, want %q", v, journal.AbsenceValue)
	}
}

func TestService_SubjectStats(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	groups, _ := svc.Groups(ctx)
	sub := findSubject(t, svc, groups[0].ID, "Химия")

	stats, err := svc.SubjectStats(ctx, sub.ID)
	if err != nil {
		t.Fatalf("SubjectStats() error = %v", err)
	}
	want := journal.SubjectStats{Subject: "Химия", TotalClasses: 2, Total: 4, Grades: 3, Absences: 1, AttendancePercent: 75}
	if stats != want {
		t.Errorf("SubjectStats() = %+v, want %+v", stats, want)
	}
}

func TestService_Ratings(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	groups, _ := svc.Groups(ctx)

	absences, err := svc.AbsenceRating(ctx, groups[0].ID, 0)
	if err != nil {
		t.Fatalf("AbsenceRating() error = %v", err)
	}
	if len(absences) != 2 {
		t.Fatalf("AbsenceRating() len = %d, want 2", len(absences))
	}
	// Иванов and Петров are tied on one absence each; FIO breaks the tie
	if absences[0].Student.FIO != "Иванов И.И." {
		t.Errorf("worst attendance = %q, want Иванов И.И.", absences[0].Student.FIO)
	}

	grades, err := svc.GradeRating(ctx, groups[0].ID, 1)
	if err != nil {
		t.Fatalf("GradeRating() error = %v", err)
	}
	if len(grades) != 1 {
		t.Fatalf("GradeRating() len = %d, want 1 with limit 1", len(grades))
	}
	// Иванов averages (5+3+5)/3 = 4.33, Петров 3.0
	if grades[0].Student.FIO != "Иванов И.И." || grades[0].AverageGrade != 4.33 {
		t.Errorf("best student = %q avg %v, want Иванов И.И. avg 4.33", grades[0].Student.FIO, grades[0].AverageGrade)
	}
}

func TestService_StudentOverview(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	st, err := svc.StudentByFIO(ctx, "Иванов Иван Иванович", 0)
	if err != nil {
		t.Fatalf("StudentByFIO() error = %v", err)
	}

	ov, err := svc.StudentOverview(ctx, st.ID)
	if err != nil {
		t.Fatalf("StudentOverview() error = %v", err)
	}
	if len(ov.Subjects) != 2 {
		t.Fatalf("Subjects len = %d, want 2", len(ov.Subjects))
	}
	// sorted by subject name
	if ov.Subjects[0].Subject.Name != "Физика" || ov.Subjects[1].Subject.Name != "Химия" {
		t.Errorf("subject order = %q, %q", ov.Subjects[0].Subject.Name, ov.Subjects[1].Subject.Name)
	}
	if ov.Overall.Total != 3 || ov.Overall.Absences != 1 {
		t.Errorf("Overall = %+v, want total 3 with 1 absence", ov.Overall)
	}
	if ov.Average != 4.33 {
		t.Errorf("Average = %v, want 4.33", ov.Average)
	}
}

func TestService_StudentOverview_unknown(t *testing.T) {
	svc, _ := seededService(t)

	if _, err := svc.StudentOverview(context.Background(), 999); err != journal.ErrStudentNotFound {
		t.Errorf("StudentOverview() error = %v, want ErrStudentNotFound", err)
	}
}

func TestService_ShouldUpdate(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	interval := 15 * time.Minute

	// never seen file
	ok, err := svc.ShouldUpdate(ctx, "Испп 14.xlsx", interval, day(7))
	if err != nil || !ok {
		t.Errorf("ShouldUpdate(new file) = %v, %v; want true", ok, err)
	}

	// stamped at day(7) by the seed
	ok, err = svc.ShouldUpdate(ctx, "Испп 32.xlsx", interval, day(7).Add(5*time.Minute))
	if err != nil || ok {
		t.Errorf("ShouldUpdate(fresh) = %v, %v; want false", ok, err)
	}
	ok, err = svc.ShouldUpdate(ctx, "Испп 32.xlsx", interval, day(7).Add(20*time.Minute))
	if err != nil || !ok {
		t.Errorf("ShouldUpdate(stale) = %v, %v; want true", ok, err)
	}
}

func TestService_ApplyFileResult_duplicateKeysKeepStored(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	// re-apply with a different value for an existing key
	res := journal.FileResult{
		File:  "Испп 32.xlsx",
		Group: "32",
		Facts: []journal.FactRecord{
			{Group: "32", Subject: "Химия", StudentFIO: "Иванов И.И.", Date: day(4), Value: "2"},
		},
	}
	if err := svc.ApplyFileResult(ctx, res, day(8)); err != nil {
		t.Fatalf("ApplyFileResult() error = %v", err)
	}

	st, err := svc.StudentByFIO(ctx, "Иванов И.И.", 0)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := svc.StudentGrades(ctx, st.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.SubjectName == "Химия" && row.Date.Equal(day(4)) && row.Value != "5" {
			t.Errorf("stored value overwritten: got %q, want 5", row.Value)
		}
	}
}

func TestService_BotRegistration(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	tu := journal.TelegramUser{TelegramID: 42, Username: "ivan", FirstName: "Иван"}
	st, err := svc.RegisterBotUser(ctx, tu, "Иванов Иван Иванович")
	if err != nil {
		t.Fatalf("RegisterBotUser() error = %v", err)
	}
	if st.FIO != "Иванов И.И." {
		t.Errorf("registered student = %q, want Иванов И.И.", st.FIO)
	}

	got, err := svc.BotUser(ctx, 42)
	if err != nil {
		t.Fatalf("BotUser() error = %v", err)
	}
	if !got.IsRegistered || got.FullName != "Иванов И.И." {
		t.Errorf("BotUser() = %+v, want registered as Иванов И.И.", got)
	}

	if err = svc.UnregisterBotUser(ctx, 42); err != nil {
		t.Fatalf("UnregisterBotUser() error = %v", err)
	}
	got, _ = svc.BotUser(ctx, 42)
	if got.IsRegistered || got.FullName != "" {
		t.Errorf("BotUser() after unregister = %+v, want cleared", got)
	}

	if _, err = svc.RegisterBotUser(ctx, tu, "Неизвестный Никто"); err != journal.ErrStudentNotFound {
		t.Errorf("RegisterBotUser(unknown) error = %v, want ErrStudentNotFound", err)
	}
}

func TestService_BotRegistration_fuzzyName(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	// one-letter typo in the surname still binds to the right student
	tu := journal.TelegramUser{TelegramID: 43, Username: "ivan"}
	st, err := svc.RegisterBotUser(ctx, tu, "Ивонов Иван Иванович")
	if err != nil {
		t.Fatalf("RegisterBotUser() error = %v", err)
	}
	if st.FIO != "Иванов И.И." {
		t.Errorf("registered student = %q, want Иванов И.И.", st.FIO)
	}
	got, err := svc.BotUser(ctx, 43)
	if err != nil {
		t.Fatalf("BotUser() error = %v", err)
	}
	if got.FullName != "Иванов И.И." {
		t.Errorf("stored name = %q, want the matched canonical form", got.FullName)
	}
}
