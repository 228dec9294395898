package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"parkspot/pkg/logger"
	"parkspot/pkg/model"
	valutil "parkspot/pkg/validation"
)

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	// Status values contain spaces, which rules out the oneof tag.
	if err := v.RegisterValidation("reservation_status", validateReservationStatus); err != nil {
		log.Fatal("Failed to register 'reservation_status' validator",
			"error", err,
		)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func validateReservationStatus(fl validator.FieldLevel) bool {
	return model.IsValidReservationStatus(fl.Field().String())
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	if err := v.validate.Struct(reservation); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}

	if !reservation.EndDate.After(reservation.StartDate) {
		return valutil.ValidationErrors{
			valutil.ValidationError{
				Field:   "EndDate",
				Message: "endDate must be after startDate",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) ValidateUpdate(update *model.ReservationUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}

	if update.StartDate != nil && update.EndDate != nil && !update.EndDate.After(*update.StartDate) {
		return valutil.ValidationErrors{
			valutil.ValidationError{
				Field:   "EndDate",
				Message: "endDate must be after startDate",
			},
		}
	}

	return nil
}
