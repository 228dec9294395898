package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"parkspot/pkg/logger"
	"parkspot/pkg/model"
	valutil "parkspot/pkg/validation"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *UserValidator) Validate(user *model.User) error {
	if err := v.validate.Struct(user); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *UserValidator) ValidateUpdate(update *model.UserUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}
