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
	"github.com/trezcool/gremuiv/services/downloader"
	"github.com/trezcool/gremuiv/services/extractor"
	logsvc "github.com/trezcool/gremuiv/services/logger"
	"github.com/trezcool/gremuiv/services/scheduler"
	"github.com/trezcool/gremuiv/storage/database"
	sqlxrepos "github.com/trezcool/gremuiv/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "PARSER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
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
	if err = database.Migrate(db); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	svc := journal.NewService(sqlxrepos.NewJournalRepository(db))
	dl := downloader.NewService(conf, logger)
	ex := extractor.New(extractor.Config{
		SkipSheets:       conf.Parser.SkipSheets,
		StartSheetPrefix: conf.Parser.StartSheetPrefix,
		StopSheetPrefix:  conf.Parser.StopSheetPrefix,
		StopSheetName:    conf.Parser.StopSheetName,
		GroupPrefixes:    conf.Parser.GroupPrefixes,
		TopicRowDenylist: conf.Parser.TopicRowDenylist,
	})
	worker := scheduler.New(conf, logger, svc, dl, ex)

	// =========================================================================
	// Run until signalled

	logger.Info(fmt.Sprintf("Parser starting : version %q : every %v", conf.Build, conf.Parser.Interval))
	defer logger.Info("Parser stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		cancel()
	}()

	worker.Run(ctx)
}
