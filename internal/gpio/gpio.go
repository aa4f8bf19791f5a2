// Package gpio shares one rpio memory mapping between the drivers that need it.
// The mapping is opened by the first user and closed when the last one leaves.
package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	lock  sync.Mutex
	users int

	openFn  = rpio.Open
	closeFn = rpio.Close
)

func Open() error {
	lock.Lock()
	defer lock.Unlock()
	if users == 0 {
		err := openFn()
		if err != nil {
			return fmt.Errorf("failed opening rpio: %w", err)
		}
	}
	users++
	return nil
}

func Close() error {
	lock.Lock()
	defer lock.Unlock()
	if users == 0 {
		return nil
	}
	users--
	if users > 0 {
		return nil
	}
	err := closeFn()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}

// Users reports how many drivers hold the mapping.
func Users() int {
	lock.Lock()
	defer lock.Unlock()
	return users
}
