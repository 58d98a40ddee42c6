package teacher_test

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var conf = &core.Config{AppName: "Darasa", FrontendBaseURL: "https://darasa.test"}

func setup(t *testing.T) (*teacher.Service, teacher.Repository) {
	t.Helper()

	repo := inmemdb.NewTeacherRepository(inmemdb.Open())
	return teacher.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	teacher.InitValidators(validate, translator)
	return validate, translator
}

func TestService_Signup(t *testing.T) {
	svc, _ := setup(t)
	emailsvc.SentMessages = nil

	tchr, err := svc.Signup(context.Background(), teacher.NewTeacher{
		Email:     "awa@test.cd",
		Password:  "LordOfTheRings",
		FirstName: "Awa",
		LastName:  "Diallo",
	})
	if err != nil {
		t.Fatalf("Signup(): %v", err)
	}

	if tchr.ID == "" {
		t.Error("empty ID")
	}
	if tchr.CreatedAt.IsZero() || tchr.CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt not a UTC timestamp")
	}
	if err := tchr.CheckPassword("LordOfTheRings"); err != nil {
		t.Errorf("CheckPassword(): %v", err)
	}
	if err := tchr.CheckPassword("lol"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}

	// welcome email
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if want := (mail.Address{Name: "Awa Diallo", Address: "awa@test.cd"}); msg.To[0] != want {
		t.Errorf("To = %v; want %v", msg.To[0], want)
	}
	if msg.Subject != "Welcome to Darasa" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.BodyStr, "Awa") {
		t.Error("body does not greet the teacher by name")
	}
}

func TestService_CheckEmailUniqueness(t *testing.T) {
	svc, repo := setup(t)
	testutil.CreateTeacher(t, repo, "Awa", "Diallo", "awa@test.cd", "")

	if err := svc.CheckEmailUniqueness(context.Background(), "free@test.cd"); err != nil {
		t.Errorf("CheckEmailUniqueness() free email: %v", err)
	}

	err := svc.CheckEmailUniqueness(context.Background(), "awa@test.cd")
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("CheckEmailUniqueness() error = %T(%v); want *core.ValidationError", err, err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" || vErr.Fields[0].Error != teacher.ErrEmailExists.Error() {
		t.Errorf("Fields = %v", vErr.Fields)
	}
}

func TestService_GetByEmail(t *testing.T) {
	svc, repo := setup(t)
	tchr := testutil.CreateTeacher(t, repo, "Awa", "Diallo", "awa@test.cd", "")

	got, err := svc.GetByEmail(context.Background(), "  AwA@Test.CD ")
	if err != nil {
		t.Fatalf("GetByEmail(): %v", err)
	}
	if got.ID != tchr.ID {
		t.Errorf("ID = %s; want %s", got.ID, tchr.ID)
	}

	if _, err = svc.GetByEmail(context.Background(), "nobody@test.cd"); err != teacher.ErrNotFound {
		t.Errorf("GetByEmail() unknown error = %v; want ErrNotFound", err)
	}
}

func TestNewTeacher_Validate(t *testing.T) {
	svc, repo := setup(t)
	testutil.CreateTeacher(t, repo, "Awa", "Diallo", "taken@test.cd", "")
	validate, _ := newValidator()

	t.Run("cleans attributes", func(t *testing.T) {
		nt := teacher.NewTeacher{
			Email:     "  NeW@Test.CD ",
			Password:  "LordOfTheRings",
			FirstName: " Chipo ",
			LastName:  " Bahati ",
		}
		if err := nt.Validate(context.Background(), validate, svc); err != nil {
			t.Fatalf("Validate(): %v", err)
		}
		if nt.Email != "new@test.cd" {
			t.Errorf("Email = %q", nt.Email)
		}
		if nt.FirstName != "Chipo" || nt.LastName != "Bahati" {
			t.Errorf("names = %q %q", nt.FirstName, nt.LastName)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		nt := teacher.NewTeacher{
			Email:     "taken@test.cd",
			Password:  "LordOfTheRings",
			FirstName: "Chipo",
			LastName:  "Bahati",
		}
		err := nt.Validate(context.Background(), validate, svc)
		if vErr, ok := err.(*core.ValidationError); !ok || len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
			t.Errorf("Validate() error = %T(%v); want an email ValidationError", err, err)
		}
	})
}
