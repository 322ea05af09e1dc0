package monitors

import (
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/pkg/devfilters"
)

// NetworkMonitor averages received and transmitted bytes per interval across
// physical interfaces.
type NetworkMonitor struct {
	reader     sensors.Reader[sensors.NetDev]
	classifier devfilters.InterfaceClassifier
	counters   counterMonitor
}

// NewNetworkMonitor creates a network monitor. A nil classifier checks the
// host's /sys tree.
func NewNetworkMonitor(reader sensors.Reader[sensors.NetDev], classifier devfilters.InterfaceClassifier, maxSamples int) *NetworkMonitor {
	if classifier == nil {
		classifier = devfilters.SysfsInterfaces{}
	}
	return &NetworkMonitor{
		reader:     reader,
		classifier: classifier,
		counters:   newCounterMonitor(maxSamples),
	}
}

// Poll sums rx/tx bytes over physical interfaces and returns the windowed
// mean delta per direction. On a read error nothing is updated.
func (m *NetworkMonitor) Poll() (NetworkUsage, error) {
	dev, err := m.reader.Read()
	if err != nil {
		return NetworkUsage{}, err
	}

	var rx, tx uint64
	for _, d := range dev.Devices {
		if !m.classifier.IsPhysical(d.Name) {
			continue
		}
		rx += d.RxBytes
		tx += d.TxBytes
	}

	meanRx, meanTx := m.counters.observe(rx, tx)
	return NetworkUsage{RxBytes: meanRx, TxBytes: meanTx}, nil
}
