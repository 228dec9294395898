package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"parkspot/pkg/logger"
	"parkspot/pkg/model"
	valutil "parkspot/pkg/validation"
)

type VehicleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVehicleValidator(log *logger.Logger) *VehicleValidator {
	return &VehicleValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *VehicleValidator) Validate(vehicle *model.Vehicle) error {
	if err := v.validate.Struct(vehicle); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *VehicleValidator) ValidateUpdate(update *model.VehicleUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}
