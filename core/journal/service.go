package journal

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

type (
	// GradeGrid is the per-subject table the frontend renders: one row per
	// student, one column per class date.
	GradeGrid struct {
		Subject Subject             `json:"subject"`
		Dates   []string            `json:"dates"` // ISO dates, ascending
		Rows    []GradeGridRow      `json:"rows"`
	}

	GradeGridRow struct {
		Student Student           `json:"student"`
		Values  map[string]string `json:"values"` // ISO date -> value
	}

	// SubjectOverview is one line of a student's per-subject breakdown.
	SubjectOverview struct {
		Subject Subject      `json:"subject"`
		Stats   SubjectStats `json:"stats"`
	}

	// StudentOverview aggregates a student's standing across all subjects.
	StudentOverview struct {
		Student  Student           `json:"student"`
		Group    Group             `json:"group"`
		Overall  SubjectStats      `json:"overall"`
		Average  float64           `json:"average_grade"`
		Subjects []SubjectOverview `json:"subjects"`
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Groups(ctx context.Context) ([]Group, error) {
	return svc.repo.Groups(ctx)
}

func (svc *Service) GroupByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GroupByID(ctx, id)
}

func (svc *Service) Subjects(ctx context.Context, groupID int) ([]Subject, error) {
	return svc.repo.SubjectsByGroup(ctx, groupID)
}

func (svc *Service) Students(ctx context.Context, groupID int) ([]Student, error) {
	return svc.repo.StudentsByGroup(ctx, groupID)
}

func (svc *Service) Topics(ctx context.Context, subjectID int) ([]Topic, error) {
	return svc.repo.TopicsBySubject(ctx, subjectID)
}

func (svc *Service) ParseRuns(ctx context.Context, limit int) ([]ParseRun, error) {
	return svc.repo.ParseRuns(ctx, limit)
}

// GradeGrid shapes a subject's facts into the date-column table.
func (svc *Service) GradeGrid(ctx context.Context, subjectID int) (GradeGrid, error) {
	subj, err := svc.repo.SubjectByID(ctx, subjectID)
	if err != nil {
		return GradeGrid{}, err
	}
	rows, err := svc.repo.GradeRows(ctx, GradeFilter{SubjectID: subjectID})
	if err != nil {
		return GradeGrid{}, errors.Wrap(err, "querying grade rows")
	}

	dateSet := make(map[string]struct{})
	byStudent := make(map[int]*GradeGridRow)
	order := make([]int, 0)
	for _, row := range rows {
		date := row.Date.Format("2006-01-02")
		dateSet[date] = struct{}{}
		gr, ok := byStudent[row.StudentID]
		if !ok {
			gr = &GradeGridRow{
				Student: Student{ID: row.StudentID, FIO: row.StudentFIO, GroupID: subj.GroupID},
				Values:  make(map[string]string),
			}
			byStudent[row.StudentID] = gr
			order = append(order, row.StudentID)
		}
		gr.Values[date] = row.Value
	}

	grid := GradeGrid{Subject: subj, Dates: make([]string, 0, len(dateSet))}
	for date := range dateSet {
		grid.Dates = append(grid.Dates, date)
	}
	sort.Strings(grid.Dates)
	for _, id := range order {
		grid.Rows = append(grid.Rows, *byStudent[id])
	}
	sort.Slice(grid.Rows, func(i, j int) bool { return grid.Rows[i].Student.FIO < grid.Rows[j].Student.FIO })
	return grid, nil
}

// SubjectStats computes the attendance summary for one subject.
func (svc *Service) SubjectStats(ctx context.Context, subjectID int) (SubjectStats, error) {
	subj, err := svc.repo.SubjectByID(ctx, subjectID)
	if err != nil {
		return SubjectStats{}, err
	}
	rows, err := svc.repo.GradeRows(ctx, GradeFilter{SubjectID: subjectID})
	if err != nil {
		return SubjectStats{}, errors.Wrap(err, "querying grade rows")
	}
	return statsFromRows(subj.Name, rows), nil
}

// AbsenceRating ranks a group's students by recorded absences, worst first.
func (svc *Service) AbsenceRating(ctx context.Context, groupID, limit int) ([]RatingItem, error) {
	items, err := svc.rating(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Absences != items[j].Absences {
			return items[i].Absences > items[j].Absences
		}
		return items[i].Student.FIO < items[j].Student.FIO
	})
	return clip(items, limit), nil
}

// GradeRating ranks a group's students by 5-scale average, best first.
func (svc *Service) GradeRating(ctx context.Context, groupID, limit int) ([]RatingItem, error) {
	items, err := svc.rating(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AverageGrade != items[j].AverageGrade {
			return items[i].AverageGrade > items[j].AverageGrade
		}
		return items[i].Student.FIO < items[j].Student.FIO
	})
	return clip(items, limit), nil
}

func (svc *Service) rating(ctx context.Context, groupID int) ([]RatingItem, error) {
	grp, err := svc.repo.GroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rows, err := svc.repo.GradeRows(ctx, GradeFilter{GroupID: groupID})
	if err != nil {
		return nil, errors.Wrap(err, "querying grade rows")
	}

	type acc struct {
		item      RatingItem
		gradeSum  int
		gradeCnt  int
	}
	byStudent := make(map[int]*acc)
	for _, row := range rows {
		a, ok := byStudent[row.StudentID]
		if !ok {
			a = &acc{item: RatingItem{
				Student: Student{ID: row.StudentID, FIO: row.StudentFIO, GroupID: groupID},
				Group:   grp.Name,
			}}
			byStudent[row.StudentID] = a
		}
		a.item.Total++
		if row.IsAbsence() {
			a.item.Absences++
		} else {
			a.item.Grades++
		}
		for _, n := range GradeNumbers(row.Value) {
			a.gradeSum += n
			a.gradeCnt++
		}
	}

	items := make([]RatingItem, 0, len(byStudent))
	for _, a := range byStudent {
		if a.item.Total > 0 {
			a.item.AttendancePercent = round1(float64(a.item.Grades) / float64(a.item.Total) * 100)
		}
		if a.gradeCnt > 0 {
			a.item.AverageGrade = round2(float64(a.gradeSum) / float64(a.gradeCnt))
		}
		items = append(items, a.item)
	}
	return items, nil
}

// StudentByFIO finds a student by any spelling of their name.
func (svc *Service) StudentByFIO(ctx context.Context, fio string, groupID int) (Student, error) {
	return svc.repo.StudentByFIO(ctx, CanonicalFIO(fio), groupID)
}

// StudentSubjects lists the subjects a student has facts in.
func (svc *Service) StudentSubjects(ctx context.Context, studentID int) ([]Subject, error) {
	rows, err := svc.repo.GradeRows(ctx, GradeFilter{StudentID: studentID})
	if err != nil {
		return nil, errors.Wrap(err, "querying grade rows")
	}
	seen := make(map[int]struct{})
	var subjects []Subject
	for _, row := range rows {
		if _, ok := seen[row.SubjectID]; ok {
			continue
		}
		seen[row.SubjectID] = struct{}{}
		subjects = append(subjects, Subject{ID: row.SubjectID, Name: row.SubjectName})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// StudentGrades lists a student's facts, optionally narrowed to one subject.
func (svc *Service) StudentGrades(ctx context.Context, studentID, subjectID int) ([]GradeRow, error) {
	return svc.repo.GradeRows(ctx, GradeFilter{StudentID: studentID, SubjectID: subjectID})
}

// StudentOverview aggregates one student's standing across all subjects.
func (svc *Service) StudentOverview(ctx context.Context, studentID int) (StudentOverview, error) {
	rows, err := svc.repo.GradeRows(ctx, GradeFilter{StudentID: studentID})
	if err != nil {
		return StudentOverview{}, errors.Wrap(err, "querying grade rows")
	}
	if len(rows) == 0 {
		return StudentOverview{}, ErrStudentNotFound
	}

	ov := StudentOverview{
		Student: Student{ID: studentID, FIO: rows[0].StudentFIO},
	}

	bySubject := make(map[int][]GradeRow)
	order := make([]int, 0)
	var gradeSum, gradeCnt int
	for _, row := range rows {
		if _, ok := bySubject[row.SubjectID]; !ok {
			order = append(order, row.SubjectID)
		}
		bySubject[row.SubjectID] = append(bySubject[row.SubjectID], row)
		for _, n := range GradeNumbers(row.Value) {
			gradeSum += n
			gradeCnt++
		}
	}
	for _, id := range order {
		sub := bySubject[id]
		ov.Subjects = append(ov.Subjects, SubjectOverview{
			Subject: Subject{ID: id, Name: sub[0].SubjectName},
			Stats:   statsFromRows(sub[0].SubjectName, sub),
		})
	}
	sort.Slice(ov.Subjects, func(i, j int) bool { return ov.Subjects[i].Subject.Name < ov.Subjects[j].Subject.Name })

	ov.Overall = statsFromRows("", rows)
	if gradeCnt > 0 {
		ov.Average = round2(float64(gradeSum) / float64(gradeCnt))
	}
	return ov, nil
}

// fioMatchThreshold accepts minor typos in a registrant's name while
// rejecting a different surname.
const fioMatchThreshold = 0.85

// RegisterBotUser links a Telegram account to a student by free-form name.
// An exact canonical match is preferred; a close fuzzy match covers typos.
func (svc *Service) RegisterBotUser(ctx context.Context, tu TelegramUser, fullName string) (Student, error) {
	canonical := CanonicalFIO(fullName)
	student, err := svc.repo.StudentByFIO(ctx, canonical, 0)
	if err == ErrStudentNotFound {
		student, err = svc.findStudentFuzzy(ctx, canonical)
		canonical = student.FIO
	}
	if err != nil {
		return Student{}, err
	}

	tu.FullName = canonical
	tu.IsRegistered = true
	if tu.RegisteredAt.IsZero() {
		tu.RegisteredAt = time.Now().UTC()
	}
	if _, err = svc.repo.UpsertTelegramUser(ctx, tu); err != nil {
		return Student{}, errors.Wrap(err, "upserting telegram user")
	}
	return student, nil
}

// findStudentFuzzy scans all stored students for the closest name.
func (svc *Service) findStudentFuzzy(ctx context.Context, fio string) (Student, error) {
	groups, err := svc.repo.Groups(ctx)
	if err != nil {
		return Student{}, errors.Wrap(err, "listing groups")
	}
	var best Student
	var bestRatio float64
	for _, grp := range groups {
		students, err := svc.repo.StudentsByGroup(ctx, grp.ID)
		if err != nil {
			return Student{}, errors.Wrap(err, "listing students")
		}
		for _, st := range students {
			if ratio := fioSimilarity(fio, st.FIO); ratio > bestRatio {
				best, bestRatio = st, ratio
			}
		}
	}
	if bestRatio < fioMatchThreshold {
		return Student{}, ErrStudentNotFound
	}
	return best, nil
}

// BotUser fetches a Telegram account's registration state.
func (svc *Service) BotUser(ctx context.Context, telegramID int64) (TelegramUser, error) {
	return svc.repo.TelegramUserByID(ctx, telegramID)
}

// UnregisterBotUser clears a Telegram account's student link.
func (svc *Service) UnregisterBotUser(ctx context.Context, telegramID int64) error {
	tu, err := svc.repo.TelegramUserByID(ctx, telegramID)
	if err != nil {
		return err
	}
	tu.FullName = ""
	tu.IsRegistered = false
	_, err = svc.repo.UpsertTelegramUser(ctx, tu)
	return errors.Wrap(err, "upserting telegram user")
}

// ShouldUpdate is the per-file freshness gate for the periodic worker.
func (svc *Service) ShouldUpdate(ctx context.Context, fileName string, interval time.Duration, now time.Time) (bool, error) {
	last, err := svc.repo.LastUpdate(ctx, fileName)
	if err != nil {
		return false, errors.Wrap(err, "reading update log")
	}
	if last.IsZero() {
		return true, nil
	}
	return now.Sub(last) >= interval, nil
}

// ApplyFileResult persists one workbook's extraction output and stamps the
// update log.
func (svc *Service) ApplyFileResult(ctx context.Context, res FileResult, now time.Time) error {
	if err := svc.repo.ApplyFileResult(ctx, res); err != nil {
		return errors.Wrap(err, "applying file result")
	}
	return errors.Wrap(svc.repo.SetLastUpdate(ctx, res.File, now), "stamping update log")
}

// RecordParseRun logs one pass of the periodic worker.
func (svc *Service) RecordParseRun(ctx context.Context, run ParseRun) error {
	return errors.Wrap(svc.repo.CreateParseRun(ctx, run), "recording parse run")
}

func statsFromRows(subject string, rows []GradeRow) SubjectStats {
	stats := SubjectStats{Subject: subject}
	dates := make(map[string]struct{})
	for _, row := range rows {
		stats.Total++
		dates[row.Date.Format("2006-01-02")] = struct{}{}
		if row.IsAbsence() {
			stats.Absences++
		} else {
			stats.Grades++
		}
	}
	stats.TotalClasses = len(dates)
	if stats.Total > 0 {
		stats.AttendancePercent = round1(float64(stats.Grades) / float64(stats.Total) * 100)
	}
	return stats
}

func clip(items []RatingItem, limit int) []RatingItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }
