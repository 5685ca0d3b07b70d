package main

import (
	"log"
	"os"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/user"
	logsvc "github.com/shiksha/lms/services/logger"
	"github.com/shiksha/lms/storage/database"
	sqlxrepos "github.com/shiksha/lms/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), logsvc.NewStdLogger(logger))

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: usrSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
