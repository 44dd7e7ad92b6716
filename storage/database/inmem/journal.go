package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/gremuiv/core/journal"
)

// journalRepository keeps everything in maps behind one lock. It backs
// tests and local development; the sqlx repository is the real one.
type journalRepository struct {
	mutex sync.RWMutex

	pkCount   int
	groups    map[int]*journal.Group
	students  map[int]*journal.Student
	subjects  map[int]*journal.Subject
	grades    map[int]*journal.Grade
	topics    map[int]*journal.Topic
	botUsers  map[int64]*journal.TelegramUser
	updateLog map[string]time.Time
	parseRuns []journal.ParseRun
}

var _ journal.Repository = (*journalRepository)(nil) // interface compliance check

func NewJournalRepository() *journalRepository {
	return &journalRepository{
		groups:    make(map[int]*journal.Group),
		students:  make(map[int]*journal.Student),
		subjects:  make(map[int]*journal.Subject),
		grades:    make(map[int]*journal.Grade),
		topics:    make(map[int]*journal.Topic),
		botUsers:  make(map[int64]*journal.TelegramUser),
		updateLog: make(map[string]time.Time),
	}
}

func (repo *journalRepository) nextPK() int {
	repo.pkCount++
	return repo.pkCount
}

func (repo *journalRepository) ApplyFileResult(_ context.Context, res journal.FileResult) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	groupID := repo.upsertGroup(res.Group)
	for _, fact := range res.Facts {
		stID := repo.upsertStudent(fact.StudentFIO, groupID)
		subID := repo.upsertSubject(fact.Subject, groupID)
		if repo.gradeExists(stID, subID, fact.Date) {
			continue // stored record wins
		}
		id := repo.nextPK()
		repo.grades[id] = &journal.Grade{ID: id, StudentID: stID, SubjectID: subID, Date: fact.Date, Value: fact.Value}
	}
	for _, topic := range res.Topics {
		subID := repo.upsertSubject(topic.Subject, groupID)
		repo.upsertTopic(subID, topic)
	}
	return nil
}

func (repo *journalRepository) upsertGroup(name string) int {
	for _, grp := range repo.groups {
		if grp.Name == name {
			return grp.ID
		}
	}
	id := repo.nextPK()
	repo.groups[id] = &journal.Group{ID: id, Name: name}
	return id
}

func (repo *journalRepository) upsertStudent(fio string, groupID int) int {
	for _, st := range repo.students {
		if st.FIO == fio && st.GroupID == groupID {
			return st.ID
		}
	}
	id := repo.nextPK()
	repo.students[id] = &journal.Student{ID: id, FIO: fio, GroupID: groupID}
	return id
}

func (repo *journalRepository) upsertSubject(name string, groupID int) int {
	for _, sub := range repo.subjects {
		if sub.Name == name && sub.GroupID == groupID {
			return sub.ID
		}
	}
	id := repo.nextPK()
	repo.subjects[id] = &journal.Subject{ID: id, Name: name, GroupID: groupID}
	return id
}

func (repo *journalRepository) gradeExists(studentID, subjectID int, date time.Time) bool {
	for _, g := range repo.grades {
		if g.StudentID == studentID && g.SubjectID == subjectID && g.Date.Equal(date) {
			return true
		}
	}
	return false
}

func (repo *journalRepository) upsertTopic(subjectID int, rec journal.TopicRecord) {
	for _, t := range repo.topics {
		if t.SubjectID == subjectID && t.Name == rec.Name {
			t.Hours = rec.Hours
			t.Date = rec.Date
			return
		}
	}
	id := repo.nextPK()
	repo.topics[id] = &journal.Topic{ID: id, SubjectID: subjectID, Name: rec.Name, Hours: rec.Hours, Date: rec.Date}
}

func (repo *journalRepository) LastUpdate(_ context.Context, fileName string) (time.Time, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	return repo.updateLog[fileName], nil
}

func (repo *journalRepository) SetLastUpdate(_ context.Context, fileName string, t time.Time) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.updateLog[fileName] = t
	return nil
}

func (repo *journalRepository) CreateParseRun(_ context.Context, run journal.ParseRun) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.parseRuns = append(repo.parseRuns, run)
	return nil
}

func (repo *journalRepository) ParseRuns(_ context.Context, limit int) ([]journal.ParseRun, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	runs := make([]journal.ParseRun, len(repo.parseRuns))
	copy(runs, repo.parseRuns)
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (repo *journalRepository) Groups(_ context.Context) ([]journal.Group, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	groups := make([]journal.Group, 0, len(repo.groups))
	for _, grp := range repo.groups {
		groups = append(groups, *grp)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (repo *journalRepository) GroupByID(_ context.Context, id int) (journal.Group, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if grp, ok := repo.groups[id]; ok {
		return *grp, nil
	}
	return journal.Group{}, journal.ErrGroupNotFound
}

func (repo *journalRepository) SubjectsByGroup(_ context.Context, groupID int) ([]journal.Subject, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	subjects := make([]journal.Subject, 0)
	for _, sub := range repo.subjects {
		if sub.GroupID == groupID {
			subjects = append(subjects, *sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *journalRepository) SubjectByID(_ context.Context, id int) (journal.Subject, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if sub, ok := repo.subjects[id]; ok {
		return *sub, nil
	}
	return journal.Subject{}, journal.ErrSubjectNotFound
}

func (repo *journalRepository) StudentsByGroup(_ context.Context, groupID int) ([]journal.Student, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	students := make([]journal.Student, 0)
	for _, st := range repo.students {
		if st.GroupID == groupID {
			students = append(students, *st)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].FIO < students[j].FIO })
	return students, nil
}

func (repo *journalRepository) StudentByFIO(_ context.Context, fio string, groupID int) (journal.Student, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	var found *journal.Student
	for _, st := range repo.students {
		if st.FIO != fio {
			continue
		}
		if groupID != 0 && st.GroupID != groupID {
			continue
		}
		if found == nil || st.ID < found.ID {
			found = st
		}
	}
	if found == nil {
		return journal.Student{}, journal.ErrStudentNotFound
	}
	return *found, nil
}

func (repo *journalRepository) GradeRows(_ context.Context, filter journal.GradeFilter) ([]journal.GradeRow, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	rows := make([]journal.GradeRow, 0)
	for _, g := range repo.grades {
		st := repo.students[g.StudentID]
		sub := repo.subjects[g.SubjectID]
		if st == nil || sub == nil {
			continue
		}
		if filter.GroupID != 0 && st.GroupID != filter.GroupID {
			continue
		}
		if filter.SubjectID != 0 && g.SubjectID != filter.SubjectID {
			continue
		}
		if filter.StudentID != 0 && g.StudentID != filter.StudentID {
			continue
		}
		if !filter.DateFrom.IsZero() && g.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && g.Date.After(filter.DateTo) {
			continue
		}
		rows = append(rows, journal.GradeRow{
			StudentID:   g.StudentID,
			StudentFIO:  st.FIO,
			SubjectID:   g.SubjectID,
			SubjectName: sub.Name,
			Date:        g.Date,
			Value:       g.Value,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StudentFIO != rows[j].StudentFIO {
			return rows[i].StudentFIO < rows[j].StudentFIO
		}
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows, nil
}

func (repo *journalRepository) TopicsBySubject(_ context.Context, subjectID int) ([]journal.Topic, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	topics := make([]journal.Topic, 0)
	for _, t := range repo.topics {
		if t.SubjectID == subjectID {
			topics = append(topics, *t)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		ti, tj := topics[i], topics[j]
		switch {
		case ti.Date == nil && tj.Date == nil:
			return ti.ID < tj.ID
		case ti.Date == nil:
			return false
		case tj.Date == nil:
			return true
		case !ti.Date.Equal(*tj.Date):
			return ti.Date.Before(*tj.Date)
		}
		return ti.ID < tj.ID
	})
	return topics, nil
}

func (repo *journalRepository) TelegramUserByID(_ context.Context, telegramID int64) (journal.TelegramUser, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if tu, ok := repo.botUsers[telegramID]; ok {
		return *tu, nil
	}
	return journal.TelegramUser{}, journal.ErrBotUserNotFound
}

func (repo *journalRepository) UpsertTelegramUser(_ context.Context, tu journal.TelegramUser) (journal.TelegramUser, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	if prev, ok := repo.botUsers[tu.TelegramID]; ok {
		tu.ID = prev.ID
	} else {
		tu.ID = repo.nextPK()
	}
	repo.botUsers[tu.TelegramID] = &tu
	return tu, nil
}
