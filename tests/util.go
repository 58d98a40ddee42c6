package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/teacher"
)

func CreateTeacher(
	t *testing.T,
	repo teacher.Repository,
	firstName, lastName, email, pwd string,
	createdAt ...time.Time,
) teacher.Teacher {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	tchr := teacher.Teacher{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := tchr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateTeacher() failed: %v", err)
		}
	}
	tchr, err := repo.CreateTeacher(context.Background(), tchr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	ownerID, title, description string,
	deadline time.Time,
	createdAt ...time.Time,
) assignment.Assignment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	asg := assignment.Assignment{
		Title:       title,
		Description: description,
		Deadline:    deadline.UTC(),
		CreatedBy:   ownerID,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}
