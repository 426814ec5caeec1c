package auth

import (
	"chat-relay/domain/naming"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Usernames are qualified names such as alice.vienna.at
	_ = v.RegisterValidation("qualified_name", func(fl validator.FieldLevel) bool {
		return naming.IsValidDomain(fl.Field().String())
	})
	return v
}

// Registration is what a user announces to the directory.
type Registration struct {
	Username string `validate:"required,qualified_name"`
	Address  string `validate:"required,hostname_port"`
}

// ValidateRegistration checks both fields against their tags and reports the
// first offending one as ErrInvalidUsername or ErrInvalidAddress.
func ValidateRegistration(r Registration) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].Field() {
	case "Username":
		return fmt.Errorf("%w: %q", errors.ErrInvalidUsername, r.Username)
	default:
		return fmt.Errorf("%w: %q", errors.ErrInvalidAddress, r.Address)
	}
}

// ValidateAddress accepts host:port where host is an IP or a host name.
func ValidateAddress(address string) error {
	if err := validate.Var(address, "required,hostname_port"); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidAddress, address)
	}
	return nil
}

func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,qualified_name"); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidUsername, username)
	}
	return nil
}
