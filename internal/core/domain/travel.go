package domain

import (
	"fmt"
	"strings"
)

// TravelProfile is a named travel speed in km/h.
type TravelProfile struct {
	Name     string  `json:"name"`
	SpeedKmh float64 `json:"speed_kmh"`
}

var (
	ProfileFoot      = TravelProfile{Name: "Foot", SpeedKmh: 5}
	ProfileHorseback = TravelProfile{Name: "Horseback", SpeedKmh: 8}
	ProfileCarriage  = TravelProfile{Name: "Carriage", SpeedKmh: 6}
)

// DefaultProfile is selected when a session starts.
var DefaultProfile = ProfileHorseback

// TravelProfiles lists every selectable profile in display order.
func TravelProfiles() []TravelProfile {
	return []TravelProfile{ProfileHorseback, ProfileFoot, ProfileCarriage}
}

// ParseTravelProfile resolves a profile by name (case-insensitive).
func ParseTravelProfile(name string) (TravelProfile, error) {
	for _, p := range TravelProfiles() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return TravelProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// String returns e.g. "Horseback (8 km/h)".
func (p TravelProfile) String() string {
	return fmt.Sprintf("%s (%g km/h)", p.Name, p.SpeedKmh)
}
