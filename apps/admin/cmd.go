package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/core/teacher"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	tchrRepo teacher.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addteacher -email EMAIL -first FIRSTNAME -last LASTNAME - create a teacher account")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := flag.NewFlagSet("addteacher", flag.ExitOnError)
	addTeacherEmail := addTeacherCmd.String("email", "", "The teacher's email. The password will be prompted next.")
	addTeacherFirst := addTeacherCmd.String("first", "", "The teacher's first name.")
	addTeacherLast := addTeacherCmd.String("last", "", "The teacher's last name.")

	switch args[1] {
	case "addteacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTeacherEmail == "" || *addTeacherFirst == "" || *addTeacherLast == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addTeacherCmd.Usage()
			return errHelp
		}
		return cli.addTeacher(*addTeacherEmail, *addTeacherFirst, *addTeacherLast, string(pwd))
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
