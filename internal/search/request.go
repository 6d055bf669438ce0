package search

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
)

// Mode selects how a search covers its area.
type Mode string

const (
	ModePoint  Mode = "point"  // one location
	ModeBox    Mode = "box"    // grid over a bounding box
	ModeRoute  Mode = "route"  // samples along a routed path
	ModeRegion Mode = "region" // one eBird region code
)

// Request describes one search. Zero radius, lookback, list mode and topN
// fall back to the service defaults.
type Request struct {
	Mode         Mode             `json:"mode" yaml:"mode" validate:"required,oneof=point box route region"`
	Point        *geo.Coordinate  `json:"point,omitempty" yaml:"point,omitempty" validate:"required_if=Mode point"`
	Box          *geo.BoundingBox `json:"box,omitempty" yaml:"box,omitempty" validate:"required_if=Mode box"`
	Origin       *geo.Coordinate  `json:"origin,omitempty" yaml:"origin,omitempty" validate:"required_if=Mode route"`
	Destination  *geo.Coordinate  `json:"destination,omitempty" yaml:"destination,omitempty" validate:"required_if=Mode route"`
	Waypoints    []geo.Coordinate `json:"waypoints,omitempty" yaml:"waypoints,omitempty" validate:"max=25,dive"`
	Region       string           `json:"region,omitempty" yaml:"region,omitempty" validate:"required_if=Mode region,max=16"`
	RadiusKm     float64          `json:"radiusKm,omitempty" yaml:"radiusKm,omitempty" validate:"gte=0"`
	LookbackDays int              `json:"lookbackDays,omitempty" yaml:"lookbackDays,omitempty" validate:"gte=0"`
	SpeciesCode  string           `json:"speciesCode,omitempty" yaml:"speciesCode,omitempty" validate:"omitempty,alphanum,max=12"`
	ListMode     string           `json:"listMode,omitempty" yaml:"listMode,omitempty" validate:"omitempty,oneof=all life year month"`
	TopN         int              `json:"topN,omitempty" yaml:"topN,omitempty" validate:"gte=0,lte=100"`
	Refine       *Refinement      `json:"refine,omitempty" yaml:"refine,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors use JSON tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tags and returns a validation error naming every
// offending field.
func (r *Request) Validate() error {
	err := Validator().Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.New(err).
			Component("search").
			Category(errors.CategoryValidation).
			Build()
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return errors.Newf("invalid search request: %s", strings.Join(fields, ", ")).
		Component("search").
		Category(errors.CategoryValidation).
		Context("fields", fields).
		Build()
}

// EncodeRequest serializes req for storage in a saved search.
func EncodeRequest(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", errors.New(err).
			Component("search").
			Category(errors.CategoryFileParsing).
			Context("operation", "encode_request").
			Build()
	}
	return string(data), nil
}

// DecodeRequest parses a stored request and validates it.
func DecodeRequest(raw string) (Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return Request{}, errors.New(err).
			Component("search").
			Category(errors.CategoryFileParsing).
			Context("operation", "decode_request").
			Build()
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
