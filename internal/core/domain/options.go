package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

func ParseOrientation(raw string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OrientationPortrait:
		return OrientationPortrait, nil
	case OrientationLandscape:
		return OrientationLandscape, nil
	default:
		return "", fmt.Errorf("unknown orientation %q", raw)
	}
}

func OrientationFromSwitch(landscape bool) Orientation {
	if landscape {
		return OrientationLandscape
	}
	return OrientationPortrait
}

type ProcessingType string

const (
	ProcessingResize ProcessingType = "resize"
	ProcessingSplit  ProcessingType = "split"
)

var DefaultProcessingTypes = []string{string(ProcessingResize), string(ProcessingSplit)}

// DefaultMargin is the backend default, in inches.
const DefaultMargin = 0.5

type Margins struct {
	Top    float64 `json:"margin_top"`
	Right  float64 `json:"margin_right"`
	Bottom float64 `json:"margin_bottom"`
	Left   float64 `json:"margin_left"`
}

func DefaultMargins() Margins {
	return Margins{Top: DefaultMargin, Right: DefaultMargin, Bottom: DefaultMargin, Left: DefaultMargin}
}

func (m Margins) Validate() error {
	sides := []struct {
		name  string
		value float64
	}{{"top", m.Top}, {"right", m.Right}, {"bottom", m.Bottom}, {"left", m.Left}}
	for _, side := range sides {
		if math.IsNaN(side.value) || math.IsInf(side.value, 0) || side.value < 0 {
			return fmt.Errorf("margin %s must be a non-negative number", side.name)
		}
	}
	return nil
}

// ProcessingOptions are read fresh from the form on every submission.
type ProcessingOptions struct {
	Type        ProcessingType
	Margins     Margins
	Orientation Orientation
}

func (o ProcessingOptions) Validate(allowedTypes []string) error {
	if err := o.Margins.Validate(); err != nil {
		return err
	}
	if o.Orientation != OrientationPortrait && o.Orientation != OrientationLandscape {
		return fmt.Errorf("unknown orientation %q", o.Orientation)
	}
	if !slices.Contains(allowedTypes, string(o.Type)) {
		return fmt.Errorf("unknown processing type %q", o.Type)
	}
	return nil
}
