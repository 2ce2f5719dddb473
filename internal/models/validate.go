package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the files on disk
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewUser builds a validated user record. The username is trimmed, the
// password is kept exactly as given.
func NewUser(username, password string) (*User, error) {
	u := &User{
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the user against its field rules
func (u *User) Validate() error {
	return validationError(validate.Struct(u))
}

// NewTask builds a validated, not yet completed task from caller input
func NewTask(id int64, in TaskInput, now time.Time) (*Task, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}
	t := &Task{
		ID:          id,
		Owner:       strings.TrimSpace(in.Owner),
		Title:       strings.TrimSpace(in.Title),
		Priority:    in.Priority,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the task against its field rules
func (t *Task) Validate() error {
	if err := validationError(validate.Struct(t)); err != nil {
		return err
	}
	if t.DueDate != nil {
		return checkDueDate(*t.DueDate)
	}
	return nil
}

// validationError folds validator output into ErrInvalidInput
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
