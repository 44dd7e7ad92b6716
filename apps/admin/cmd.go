package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	openDBFunc       = database.Open     // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	out  io.Writer
	db   *sql.DB // lazily opened by commands that need it
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database, app user and extensions if missing")
	fmt.Println("  migrate SUBCOMMAND [args] - run goose migration SUBCOMMAND (up, down, status, ...)")
	fmt.Println("  hashpassword - hash an admin password for the server config. The password will be prompted next.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "hashpassword":
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) openDB() (*sql.DB, error) {
	if cli.db != nil {
		return cli.db, nil
	}
	db, err := openDBFunc(cli.conf)
	if err != nil {
		return nil, err
	}
	cli.db = db
	return db, nil
}

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(cli.conf)
}
