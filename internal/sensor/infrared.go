package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/gpio"
	"github.com/Speshl/gorrc_tracker/internal/models"
	"github.com/stianeikeland/go-rpio/v4"
)

type inputPin interface {
	Input()
	Read() rpio.State
}

// InfraredFeed reads the four line sensors straight from GPIO. A sensor over the dark line reads high.
type InfraredFeed struct {
	pinNumbers []int
	pins       []inputPin
	now        func() time.Time
}

func NewInfraredFeed(pins []int) *InfraredFeed {
	return &InfraredFeed{
		pinNumbers: pins,
		now:        time.Now,
	}
}

func (f *InfraredFeed) Init() error {
	if len(f.pinNumbers) != 4 {
		return fmt.Errorf("infrared feed needs 4 pins, got %d", len(f.pinNumbers))
	}

	err := gpio.Open()
	if err != nil {
		return err
	}

	f.pins = make([]inputPin, 0, len(f.pinNumbers))
	for _, number := range f.pinNumbers {
		pin := rpio.Pin(number)
		pin.Input()
		f.pins = append(f.pins, pin)
		log.Printf("infrared sensor added on pin %d\n", number)
	}
	return nil
}

func (f *InfraredFeed) Stop() error {
	return gpio.Close()
}

// Latest samples the pins. Every read is a new frame.
func (f *InfraredFeed) Latest() (models.Frame, bool) {
	if len(f.pins) != 4 {
		return models.Frame{}, false
	}

	reading := models.InfraredReading{}
	for i, pin := range f.pins {
		reading.Sensors[i] = pin.Read() == rpio.High
	}
	return models.Frame{
		Infrared: &reading,
		Captured: f.now(),
	}, true
}
