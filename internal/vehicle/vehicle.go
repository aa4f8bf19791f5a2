package vehicle

import (
	"context"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/models"
)

// DriverCommand asks a driver to move the named output to Value, where Value is expressed
// in the range Min..Max and the driver maps it onto its own hardware range.
// When Pulse is set Value is already a pulse width in microseconds and goes out unchanged,
// limited only by the channel's pulse range. Min and Max then just report the caller's limits.
type DriverCommand struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
	Pulse bool
}

type CommandDriverIFace interface {
	Init() error
	Set(DriverCommand) error
	SetMany([]DriverCommand) error
	Stop() error
}

type Vehicle interface {
	Init() error
	Start(context.Context) error
}

var WheelNames = [models.WheelCount]string{
	config.ServoFrontLeft,
	config.ServoFrontRight,
	config.ServoRearLeft,
	config.ServoRearRight,
}

// WheelCommands expresses a wheel command as signed duties in -maxDuty..maxDuty.
func WheelCommands(w models.WheelCommand, maxDuty float64) []DriverCommand {
	values := w.Values()
	commands := make([]DriverCommand, 0, models.WheelCount)
	for i := range values {
		commands = append(commands, DriverCommand{
			Name:  WheelNames[i],
			Value: values[i],
			Min:   -maxDuty,
			Max:   maxDuty,
		})
	}
	return commands
}

func StopCommands(maxDuty float64) []DriverCommand {
	return WheelCommands(models.WheelCommand{}, maxDuty)
}

func GetValueWithMidDeadZone(value, midValue, deadZone float64) float64 {
	if value > midValue && midValue+deadZone > value {
		return midValue
	} else if value < midValue && midValue-deadZone < value {
		return midValue
	}
	return value
}

func MapToRange(value, min, max, minReturn, maxReturn float64) float64 {
	mappedValue := (maxReturn-minReturn)*(value-min)/(max-min) + minReturn

	if mappedValue > maxReturn {
		return maxReturn
	} else if mappedValue < minReturn {
		return minReturn
	} else {
		return mappedValue
	}
}
