package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
	botsvc "github.com/trezcool/gremuiv/services/bot"
	logsvc "github.com/trezcool/gremuiv/services/logger"
	"github.com/trezcool/gremuiv/storage/database"
	sqlxrepos "github.com/trezcool/gremuiv/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "BOT : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("Failed to close DB", err)
		}
	}()

	// set up services
	svc := journal.NewService(sqlxrepos.NewJournalRepository(db))
	bot, err := botsvc.New(conf, logger, svc)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up bot: %v", err), err)
	}

	// =========================================================================
	// Run until signalled

	logger.Info(fmt.Sprintf("Bot starting : version %q", conf.Build))
	defer logger.Info("Bot stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		cancel()
	}()

	bot.Run(ctx)
}
