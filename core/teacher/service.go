package teacher

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("teacher not found")
	ErrEmailExists = errors.New("a teacher with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		GetTeacherByEmail(ctx context.Context, email string) (Teacher, error)
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		Signup(ctx context.Context, nt NewTeacher) (Teacher, error)
		GetByID(ctx context.Context, id string) (Teacher, error)
		GetByEmail(ctx context.Context, email string) (Teacher, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Signup creates a new Teacher account and sends it a welcome email.
func (svc *Service) Signup(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := time.Now().UTC()
	tchr := Teacher{
		Email:     nt.Email,
		FirstName: nt.FirstName,
		LastName:  nt.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tchr.SetPassword(nt.Password); err != nil {
		return Teacher{}, err
	}

	tchr, err := svc.repo.CreateTeacher(ctx, tchr)
	if err != nil {
		return Teacher{}, err
	}

	svc.mailSvc.SendMessages(svc.welcomeEmail(tchr))
	return tchr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Teacher, error) {
	return svc.repo.GetTeacherByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) welcomeEmail(tchr Teacher) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: tchr.FullName(), Address: tchr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyStr: fmt.Sprintf(
			"Hi %s,\r\n\r\nYour account has been created. "+
				"Head over to %s to start publishing assignments.\r\n",
			tchr.FirstName, svc.conf.FrontendBaseURL,
		),
	}
}
