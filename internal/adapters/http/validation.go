package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// PositionRequest is the body of click, marker and vertex requests.
type PositionRequest struct {
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
}

// Position converts a validated request.
func (r PositionRequest) Position() domain.Position {
	return domain.NewPosition(*r.Lng, *r.Lat)
}

// validationDetails turns validator errors into readable messages.
func validationDetails(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", fe.Field()))
		case "gte":
			details = append(details, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		case "lte":
			details = append(details, fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param()))
		default:
			details = append(details, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return details
}
