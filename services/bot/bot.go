// Package bot is the Telegram front end: students register by name and
// query their grades, absences and group ratings from the chat keyboard.
package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	logger   core.Logger
	svc      *journal.Service
	throttle *throttle

	mutex  sync.Mutex
	states map[int64]state
}

type state int

const (
	stateIdle state = iota
	stateAwaitingName
)

func New(conf *core.Config, logger core.Logger, svc *journal.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(conf.Bot.Token)
	if err != nil {
		return nil, errors.Wrap(err, "creating bot API")
	}
	api.Debug = conf.Bot.Debug

	return &Bot{
		api:      api,
		logger:   logger,
		svc:      svc,
		throttle: newThrottle(conf.Bot.ThrottleInterval),
		states:   make(map[int64]state),
	}, nil
}

// Run long-polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("bot: listening as @" + b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case upd := <-updates:
			if upd.Message == nil {
				continue
			}
			b.handleUpdate(ctx, upd.Message)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, msg *tgbotapi.Message) {
	reply := b.handleMessage(ctx, msg)
	if reply == nil {
		return
	}
	if _, err := b.api.Send(*reply); err != nil {
		b.logger.Error("bot: sending reply", err)
	}
}

func (b *Bot) state(id int64) state {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.states[id]
}

func (b *Bot) setState(id int64, s state) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if s == stateIdle {
		delete(b.states, id)
		return
	}
	b.states[id] = s
}
