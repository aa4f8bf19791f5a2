package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/procfs"
)

type ProcessStats struct {
	CPUSeconds    float64
	ResidentBytes int
	NetRxBytes    uint64
	NetTxBytes    uint64
}

// GetProcessStats reads this process from /proc. Whatever could be read is returned
// alongside the error.
func GetProcessStats(netInterface string) (ProcessStats, error) {
	stats := ProcessStats{}
	p, err := procfs.Self()
	if err != nil {
		return stats, fmt.Errorf("error: procfs could not get process: %w", err)
	}

	errs := make([]error, 0, 2)
	stat, err := p.Stat()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed reading process stat: %w", err))
	} else {
		stats.CPUSeconds = stat.CPUTime()
		stats.ResidentBytes = stat.ResidentMemory()
	}

	netDev, err := p.NetDev()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed getting netstat: %w", err))
	} else if line, ok := netDev[netInterface]; ok {
		stats.NetRxBytes = line.RxBytes
		stats.NetTxBytes = line.TxBytes
	}
	return stats, errors.Join(errs...)
}
