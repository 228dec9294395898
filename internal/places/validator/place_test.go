package validator

import (
	"io"
	"testing"

	"parkspot/pkg/logger"
	"parkspot/pkg/model"
)

func testValidator() *PlaceValidator {
	return NewPlaceValidator(logger.New(logger.Config{Output: io.Discard}))
}

func validPlace() *model.Place {
	return &model.Place{
		Description: "Covered spot near the station",
		Type:        model.PlaceTypeCovered,
		Geolocation: []float64{2.3522, 48.8566},
		UserID:      "64f1b2c3d4e5f6a7b8c9d0e1",
	}
}

func TestValidateGeolocation(t *testing.T) {
	v := testValidator()

	cases := []struct {
		name   string
		coords []float64
		valid  bool
	}{
		{"paris", []float64{2.3522, 48.8566}, true},
		{"with altitude", []float64{2.3522, 48.8566, 35}, true},
		{"longitude bound", []float64{180, 0}, true},
		{"latitude bound", []float64{0, -90}, true},
		{"longitude out of range", []float64{181, 0}, false},
		{"latitude out of range", []float64{0, 91}, false},
		{"single element", []float64{2.3522}, false},
		{"too many elements", []float64{1, 2, 3, 4}, false},
		{"empty", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			place := validPlace()
			place.Geolocation = tc.coords
			err := v.Validate(place)
			if tc.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateType(t *testing.T) {
	v := testValidator()

	for _, typ := range []string{model.PlaceTypeCovered, model.PlaceTypeOpen, model.PlaceTypeGarage, model.PlaceTypeOther} {
		place := validPlace()
		place.Type = typ
		if err := v.Validate(place); err != nil {
			t.Errorf("type %q should be valid, got %v", typ, err)
		}
	}

	place := validPlace()
	place.Type = "rooftop"
	if err := v.Validate(place); err == nil {
		t.Error("unknown type should be rejected")
	}
}

func TestValidateUpdateAllowsPartial(t *testing.T) {
	v := testValidator()

	if err := v.ValidateUpdate(&model.PlaceUpdate{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
	if err := v.ValidateUpdate(&model.PlaceUpdate{Geolocation: []float64{200, 0}}); err == nil {
		t.Error("out of range geolocation should be rejected")
	}
}
