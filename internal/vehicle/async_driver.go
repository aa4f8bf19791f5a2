package vehicle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
)

// AsyncDriver writes commands on its own goroutine so the control loop never waits on the bus.
// Only the newest pending batch is kept.
type AsyncDriver struct {
	driver  CommandDriverIFace
	pending chan []DriverCommand

	writes   atomic.Uint64
	failures atomic.Uint64
}

func NewAsyncDriver(driver CommandDriverIFace) *AsyncDriver {
	return &AsyncDriver{
		driver:  driver,
		pending: make(chan []DriverCommand, 1),
	}
}

// Submit queues commands without blocking, replacing anything not yet written.
func (a *AsyncDriver) Submit(commands []DriverCommand) {
	for {
		select {
		case a.pending <- commands:
			return
		default:
		}

		select {
		case <-a.pending:
		default:
		}
	}
}

func (a *AsyncDriver) Start(ctx context.Context) error {
	log.Println("starting actuator writer")
	for {
		select {
		case <-ctx.Done():
			log.Printf("stopping actuator writer: %s\n", ctx.Err().Error())
			return nil
		case commands := <-a.pending:
			a.write(commands)
		}
	}
}

func (a *AsyncDriver) write(commands []DriverCommand) {
	err := a.driver.SetMany(commands)
	if err != nil {
		count := a.failures.Add(1)
		log.Printf("actuator write failed (%d total) - error: %s\n", count, err.Error())
		return
	}
	a.writes.Add(1)
}

// Shutdown drops pending commands, writes the stop commands synchronously and releases the driver.
// Call it only after Start has returned.
func (a *AsyncDriver) Shutdown(stop []DriverCommand) error {
	select {
	case <-a.pending:
	default:
	}

	errs := make([]error, 0, 2)
	err := a.driver.SetMany(stop)
	if err != nil {
		a.failures.Add(1)
		errs = append(errs, fmt.Errorf("failed writing stop command: %w", err))
	}

	err = a.driver.Stop()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed stopping driver: %w", err))
	}
	return errors.Join(errs...)
}

func (a *AsyncDriver) Writes() uint64 {
	return a.writes.Load()
}

func (a *AsyncDriver) Errors() uint64 {
	return a.failures.Load()
}
