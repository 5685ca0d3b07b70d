package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/shiksha/lms/apps/api/echo"
	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/assignment"
	"github.com/shiksha/lms/core/user"
	bussvc "github.com/shiksha/lms/services/bus"
	emailsvc "github.com/shiksha/lms/services/email"
	logsvc "github.com/shiksha/lms/services/logger"
	notifsvc "github.com/shiksha/lms/services/notification"
	"github.com/shiksha/lms/storage/blob"
	"github.com/shiksha/lms/storage/database"
	sqlxrepos "github.com/shiksha/lms/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	db, err := setUpDB()
	if err != nil {
		logger.Fatal("setting up database", err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	files, err := setUpFileStore()
	if err != nil {
		logger.Fatal("setting up file store", err)
	}

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	bus := bussvc.NewMemoryBus(logger)
	defer bus.Close()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), logger)
	assignSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(db), files, bus, logger)

	// assignment notifications ride the in-process event bus
	notifSvc := notifsvc.NewService(usrSvc, mailSvc, logger)
	notifSvc.SubscribeTo(bus)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:          core.Conf.Server.Addr,
			Logger:        logger,
			UserSvc:       usrSvc,
			AssignmentSvc: assignSvc,
		},
		func() { shutdown <- syscall.SIGTERM },
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + core.Conf.Server.Addr)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func setUpFileStore() (core.FileStore, error) {
	if core.Conf.Debug {
		return blobstore.NewLocalStore(core.Conf.Storage.MediaRoot), nil
	}
	return blobstore.NewOSSStore(core.Conf)
}
