package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"parkspot/pkg/logger"
	"parkspot/pkg/model"
	valutil "parkspot/pkg/validation"
)

type PlaceValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPlaceValidator(log *logger.Logger) *PlaceValidator {
	v := validator.New()

	if err := v.RegisterValidation("geo_coordinates", validateGeoCoordinates); err != nil {
		log.Fatal("Failed to register 'geo_coordinates' validator",
			"error", err,
		)
	}

	return &PlaceValidator{
		validate: v,
		logger:   log,
	}
}

// validateGeoCoordinates accepts a GeoJSON-style position: [longitude,
// latitude] with an optional altitude element.
func validateGeoCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok {
		return false
	}
	if len(coords) < 2 || len(coords) > 3 {
		return false
	}
	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func (v *PlaceValidator) Validate(place *model.Place) error {
	if err := v.validate.Struct(place); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}

func (v *PlaceValidator) ValidateUpdate(update *model.PlaceUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return valutil.Translate(validationErrs)
		}
		return err
	}
	return nil
}
