package teacher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// passwordHashCost is fixed; raising it invalidates no existing hash but
// slows down every new signup and login check.
const passwordHashCost = 12

type Teacher struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), passwordHashCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}

func (t *Teacher) FullName() string {
	return core.CleanString(t.FirstName + " " + t.LastName)
}

// NewTeacher contains information needed to sign up a new Teacher.
type NewTeacher struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nt.Email)
}
