// Package travel holds the mode-specific speed policies and the travel time model.
package travel

import (
	"errors"
	"fmt"

	"github.com/jengzang/route-planner-go/internal/models"
	"github.com/jengzang/route-planner-go/internal/roadnet"
)

// ErrUnknownMode is returned by ParseMode for unsupported transport modes.
var ErrUnknownMode = errors.New("unknown transport mode")

// Mode is a transport mode.
type Mode string

const (
	Walking  Mode = models.TransportWalking
	Bicycle  Mode = models.TransportBicycle
	Electric Mode = models.TransportElectric
)

// Speeds in meters per second and related policy constants.
const (
	WalkingSpeed  = 1.4
	BicycleSpeed  = 4.2
	ElectricSpeed = 8.0

	MinCrowdLevel = 0.05
	MaxCrowdLevel = 1.0

	PrimaryBoost   = 1.1
	SecondaryBoost = 1.05

	// ElectricOffPrimaryFactor scales the vehicle speed on non-primary roads.
	ElectricOffPrimaryFactor = 0.7

	// BoardingThreshold is the farthest a primary road may be from the start or
	// end of an electric route, in meters.
	BoardingThreshold = 300.0
)

// ParseMode parses a transport mode; an empty string means walking.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return Walking, nil
	case Walking, Bicycle, Electric:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// ClampCrowdLevel limits a crowd level to [MinCrowdLevel, MaxCrowdLevel].
func ClampCrowdLevel(level float64) float64 {
	if level < MinCrowdLevel {
		return MinCrowdLevel
	}
	if level > MaxCrowdLevel {
		return MaxCrowdLevel
	}
	return level
}

// Speed returns the speed in m/s of mode on road. A nil road means the edge is
// off the network, which is always walked.
func Speed(mode Mode, road *roadnet.Road) float64 {
	if road == nil || mode == Walking {
		return WalkingSpeed
	}

	crowd := ClampCrowdLevel(road.CrowdLevel)
	switch mode {
	case Bicycle:
		speed := BicycleSpeed * crowd
		switch road.Type {
		case roadnet.Primary:
			speed *= PrimaryBoost
		case roadnet.Secondary:
			speed *= SecondaryBoost
		}
		return speed
	case Electric:
		if road.Type == roadnet.Primary {
			return ElectricSpeed * crowd
		}
		return ElectricSpeed * ElectricOffPrimaryFactor * crowd
	}
	return WalkingSpeed
}

// MaxSpeed is the highest speed Speed can return for mode.
func MaxSpeed(mode Mode) float64 {
	switch mode {
	case Bicycle:
		return BicycleSpeed * MaxCrowdLevel * PrimaryBoost
	case Electric:
		return ElectricSpeed * MaxCrowdLevel
	}
	return WalkingSpeed
}

// Minutes converts a distance in meters at speed m/s into minutes.
func Minutes(meters, speed float64) float64 {
	return meters / speed / 60
}
