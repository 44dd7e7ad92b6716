package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
)

const (
	btnGrades        = "Мои оценки"
	btnAbsences      = "Мои пропуски"
	btnGradeRating   = "Рейтинг группы"
	btnAbsenceRating = "Прогульщики"

	ratingLimit = 10
)

var mainKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnGrades),
		tgbotapi.NewKeyboardButton(btnAbsences),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnGradeRating),
		tgbotapi.NewKeyboardButton(btnAbsenceRating),
	),
)

// handleMessage routes one incoming message and builds the reply, or nil
// when the message is throttled or carries nothing to act on.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) *tgbotapi.MessageConfig {
	text := core.CleanString(msg.Text)
	if msg.From == nil || text == "" {
		return nil
	}
	if !b.throttle.allow(msg.From.ID) {
		return nil
	}

	switch text {
	case "/start":
		return b.handleStart(ctx, msg)
	case "/stop":
		return b.handleStop(ctx, msg)
	}

	if b.state(msg.From.ID) == stateAwaitingName {
		return b.handleRegistration(ctx, msg, text)
	}

	student, reply := b.requireRegistration(ctx, msg)
	if reply != nil {
		return reply
	}
	switch text {
	case btnGrades:
		return b.replyGrades(ctx, msg, student)
	case btnAbsences:
		return b.replyAbsences(ctx, msg, student)
	case btnGradeRating:
		return b.replyRating(ctx, msg, student, false)
	case btnAbsenceRating:
		return b.replyRating(ctx, msg, student, true)
	}
	return b.reply(msg, "Не понимаю. Воспользуйтесь кнопками ниже.", mainKeyboard)
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) *tgbotapi.MessageConfig {
	tu, err := b.svc.BotUser(ctx, msg.From.ID)
	if err == nil && tu.IsRegistered {
		return b.reply(msg, fmt.Sprintf("С возвращением, %s! Выберите действие.", tu.FullName), mainKeyboard)
	}
	b.setState(msg.From.ID, stateAwaitingName)
	return b.reply(msg, "Здравствуйте! Введите ваше ФИО, чтобы я нашёл вас в журнале.", tgbotapi.NewRemoveKeyboard(false))
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) *tgbotapi.MessageConfig {
	b.setState(msg.From.ID, stateIdle)
	if err := b.svc.UnregisterBotUser(ctx, msg.From.ID); err != nil && err != journal.ErrBotUserNotFound {
		b.logger.Error("bot: unregistering", err)
		return b.reply(msg, "Что-то пошло не так, попробуйте позже.", nil)
	}
	return b.reply(msg, "Вы отвязаны от журнала. Отправьте /start, чтобы зарегистрироваться снова.", tgbotapi.NewRemoveKeyboard(false))
}

func (b *Bot) handleRegistration(ctx context.Context, msg *tgbotapi.Message, fullName string) *tgbotapi.MessageConfig {
	tu := journal.TelegramUser{
		TelegramID: msg.From.ID,
		Username:   msg.From.UserName,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
	}
	student, err := b.svc.RegisterBotUser(ctx, tu, fullName)
	switch {
	case err == journal.ErrStudentNotFound:
		return b.reply(msg, "Не нашёл вас в журнале. Проверьте написание, например: Иванов Иван Иванович.", nil)
	case err != nil:
		b.logger.Error("bot: registering", err, tu)
		return b.reply(msg, "Что-то пошло не так, попробуйте позже.", nil)
	}
	b.setState(msg.From.ID, stateIdle)
	return b.reply(msg, fmt.Sprintf("Готово, %s! Выберите действие.", student.FIO), mainKeyboard)
}

// requireRegistration resolves the sender's student record; the reply is
// non-nil when the user still has to register.
func (b *Bot) requireRegistration(ctx context.Context, msg *tgbotapi.Message) (journal.Student, *tgbotapi.MessageConfig) {
	tu, err := b.svc.BotUser(ctx, msg.From.ID)
	if err != nil || !tu.IsRegistered {
		b.setState(msg.From.ID, stateAwaitingName)
		return journal.Student{}, b.reply(msg, "Сначала представьтесь: введите ваше ФИО.", nil)
	}
	student, err := b.svc.StudentByFIO(ctx, tu.FullName, 0)
	if err != nil {
		b.logger.Error("bot: resolving student", err, tu)
		return journal.Student{}, b.reply(msg, "Не нашёл ваши данные в журнале. Отправьте /start, чтобы зарегистрироваться заново.", nil)
	}
	return student, nil
}

func (b *Bot) replyGrades(ctx context.Context, msg *tgbotapi.Message, student journal.Student) *tgbotapi.MessageConfig {
	ov, err := b.svc.StudentOverview(ctx, student.ID)
	if err == journal.ErrStudentNotFound {
		return b.reply(msg, "По вам пока нет ни одной записи.", mainKeyboard)
	}
	if err != nil {
		b.logger.Error("bot: student overview", err)
		return b.reply(msg, "Что-то пошло не так, попробуйте позже.", mainKeyboard)
	}
	return b.reply(msg, formatOverview(ov), mainKeyboard)
}

func (b *Bot) replyAbsences(ctx context.Context, msg *tgbotapi.Message, student journal.Student) *tgbotapi.MessageConfig {
	ov, err := b.svc.StudentOverview(ctx, student.ID)
	if err == journal.ErrStudentNotFound {
		return b.reply(msg, "По вам пока нет ни одной записи.", mainKeyboard)
	}
	if err != nil {
		b.logger.Error("bot: student overview", err)
		return b.reply(msg, "Что-то пошло не так, попробуйте позже.", mainKeyboard)
	}
	return b.reply(msg, formatAbsences(ov), mainKeyboard)
}

func (b *Bot) replyRating(ctx context.Context, msg *tgbotapi.Message, student journal.Student, byAbsences bool) *tgbotapi.MessageConfig {
	var (
		items []journal.RatingItem
		err   error
	)
	if byAbsences {
		items, err = b.svc.AbsenceRating(ctx, student.GroupID, ratingLimit)
	} else {
		items, err = b.svc.GradeRating(ctx, student.GroupID, ratingLimit)
	}
	if err != nil {
		b.logger.Error("bot: rating", err)
		return b.reply(msg, "Что-то пошло не так, попробуйте позже.", mainKeyboard)
	}
	return b.reply(msg, formatRating(items, byAbsences), mainKeyboard)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string, keyboard interface{}) *tgbotapi.MessageConfig {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if keyboard != nil {
		out.ReplyMarkup = keyboard
	}
	return &out
}

func formatOverview(ov journal.StudentOverview) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\nСредний балл: %.2f\n", ov.Student.FIO, ov.Average))
	for _, sub := range ov.Subjects {
		sb.WriteString(fmt.Sprintf("\n%s: оценок %d, пропусков %d, посещаемость %.1f%%",
			sub.Subject.Name, sub.Stats.Grades, sub.Stats.Absences, sub.Stats.AttendancePercent))
	}
	return sb.String()
}

func formatAbsences(ov journal.StudentOverview) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Всего пропусков: %d\n", ov.Overall.Absences))
	for _, sub := range ov.Subjects {
		if sub.Stats.Absences == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s: %d", sub.Subject.Name, sub.Stats.Absences))
	}
	return sb.String()
}

func formatRating(items []journal.RatingItem, byAbsences bool) string {
	if len(items) == 0 {
		return "По группе пока нет записей."
	}
	var sb strings.Builder
	if byAbsences {
		sb.WriteString("Пропуски по группе:\n")
	} else {
		sb.WriteString("Рейтинг группы по среднему баллу:\n")
	}
	for i, item := range items {
		if byAbsences {
			sb.WriteString(fmt.Sprintf("\n%d. %s — %d", i+1, item.Student.FIO, item.Absences))
		} else {
			sb.WriteString(fmt.Sprintf("\n%d. %s — %.2f", i+1, item.Student.FIO, item.AverageGrade))
		}
	}
	return sb.String()
}
