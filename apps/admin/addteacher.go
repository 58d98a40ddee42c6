package main

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
)

// addTeacher creates a teacher.Teacher account.
func (cli *commandLine) addTeacher(email, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	if err := cli.tchrRepo.CheckEmailUniqueness(ctx, email); err != nil {
		return err
	}

	now := time.Now().UTC()
	tchr := teacher.Teacher{
		Email:     email,
		FirstName: core.CleanString(firstName),
		LastName:  core.CleanString(lastName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tchr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.tchrRepo.CreateTeacher(ctx, tchr); err != nil {
		return err
	}
	return nil
}
