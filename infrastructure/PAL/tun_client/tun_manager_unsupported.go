//go:build !linux && !darwin && !windows

package tun_client

import (
	"fmt"
	"runtime"

	"cdtun/application"
)

// PlatformTunManager is the fallback for hosts without a tun backend.
type PlatformTunManager struct {
}

func NewPlatformTunManager(_ application.Logger) application.ClientTunManager {
	return &PlatformTunManager{}
}

func (m *PlatformTunManager) CreateTunDevice(application.TunnelParameters) (application.TunDevice, error) {
	return nil, fmt.Errorf("%w: %s", application.ErrPlatformUnsupported, runtime.GOOS)
}

func (m *PlatformTunManager) DisposeTunDevices() error {
	return nil
}

func (m *PlatformTunManager) InterfaceStats() (application.TrafficStats, error) {
	return application.TrafficStats{}, fmt.Errorf("%w: %s", application.ErrPlatformUnsupported, runtime.GOOS)
}
