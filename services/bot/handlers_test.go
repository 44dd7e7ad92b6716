package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/trezcool/gremuiv/core/journal"
	inmemdb "github.com/trezcool/gremuiv/storage/database/inmem"
	testutil "github.com/trezcool/gremuiv/tests"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	repo := inmemdb.NewJournalRepository()
	svc := journal.NewService(repo)

	day := func(d int) time.Time { return time.Date(2023, time.September, d, 0, 0, 0, 0, time.UTC) }
	res := journal.FileResult{
		File:  "Испп 32.xlsx",
		Group: "32",
		Facts: []journal.FactRecord{
			{Group: "32", Subject: "Химия", StudentFIO: "Иванов И.И.", Date: day(4), Value: "5"},
			{Group: "32", Subject: "Химия", StudentFIO: "Иванов И.И.", Date: day(6), Value: journal.AbsenceValue},
			{Group: "32", Subject: "Химия", StudentFIO: "Петров П.П.", Date: day(4), Value: "3"},
		},
	}
	if err := svc.ApplyFileResult(context.Background(), res, day(7)); err != nil {
		t.Fatal(err)
	}

	return &Bot{
		logger:   testutil.NopLogger{},
		svc:      svc,
		throttle: newThrottle(0),
		states:   make(map[int64]state),
	}
}

func message(id int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: id, UserName: "ivan", FirstName: "Иван"},
		Chat: &tgbotapi.Chat{ID: id},
		Text: text,
	}
}

func TestBot_registrationFlow(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()

	reply := b.handleMessage(ctx, message(42, "/start"))
	if reply == nil || !strings.Contains(reply.Text, "ФИО") {
		t.Fatalf("start reply = %+v, want name prompt", reply)
	}

	reply = b.handleMessage(ctx, message(42, "Сидоров Сидор"))
	if reply == nil || !strings.Contains(reply.Text, "Не нашёл") {
		t.Fatalf("unknown name reply = %+v, want not-found message", reply)
	}

	reply = b.handleMessage(ctx, message(42, "Иванов Иван Иванович"))
	if reply == nil || !strings.Contains(reply.Text, "Иванов И.И.") {
		t.Fatalf("registration reply = %+v, want greeting with canonical name", reply)
	}

	// registered users get the main keyboard back on /start
	reply = b.handleMessage(ctx, message(42, "/start"))
	if reply == nil || !strings.Contains(reply.Text, "С возвращением") {
		t.Fatalf("returning start reply = %+v", reply)
	}
}

func TestBot_gradesAndRatings(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(42, "/start"))
	b.handleMessage(ctx, message(42, "Иванов Иван Иванович"))

	reply := b.handleMessage(ctx, message(42, btnGrades))
	if reply == nil || !strings.Contains(reply.Text, "Средний балл") || !strings.Contains(reply.Text, "Химия") {
		t.Errorf("grades reply = %+v", reply)
	}

	reply = b.handleMessage(ctx, message(42, btnAbsences))
	if reply == nil || !strings.Contains(reply.Text, "Всего пропусков: 1") {
		t.Errorf("absences reply = %+v", reply)
	}

	reply = b.handleMessage(ctx, message(42, btnGradeRating))
	if reply == nil || !strings.Contains(reply.Text, "1. Иванов И.И.") {
		t.Errorf("rating reply = %+v", reply)
	}

	reply = b.handleMessage(ctx, message(42, btnAbsenceRating))
	if reply == nil || !strings.Contains(reply.Text, "Иванов И.И. — 1") {
		t.Errorf("absence rating reply = %+v", reply)
	}
}

func TestBot_requiresRegistration(t *testing.T) {
	b := testBot(t)

	reply := b.handleMessage(context.Background(), message(7, btnGrades))
	if reply == nil || !strings.Contains(reply.Text, "представьтесь") {
		t.Errorf("unregistered reply = %+v, want registration prompt", reply)
	}
}

func TestBot_stop(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(42, "/start"))
	b.handleMessage(ctx, message(42, "Иванов Иван Иванович"))

	reply := b.handleMessage(ctx, message(42, "/stop"))
	if reply == nil || !strings.Contains(reply.Text, "отвязаны") {
		t.Fatalf("stop reply = %+v", reply)
	}

	tu, err := b.svc.BotUser(ctx, 42)
	if err != nil || tu.IsRegistered {
		t.Errorf("BotUser() = %+v, %v; want unregistered", tu, err)
	}
}

func TestBot_throttledMessageDropped(t *testing.T) {
	b := testBot(t)
	b.throttle = newThrottle(time.Second)
	now := time.Date(2023, time.September, 7, 12, 0, 0, 0, time.UTC)
	b.throttle.now = func() time.Time { return now }

	if reply := b.handleMessage(context.Background(), message(42, "/start")); reply == nil {
		t.Fatal("first message must be handled")
	}
	now = now.Add(200 * time.Millisecond)
	if reply := b.handleMessage(context.Background(), message(42, "/start")); reply != nil {
		t.Errorf("throttled message reply = %+v, want nil", reply)
	}
}
