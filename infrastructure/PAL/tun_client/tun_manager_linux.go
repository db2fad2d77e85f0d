//go:build linux

package tun_client

import (
	"fmt"
	"sync"

	"cdtun/application"
	"cdtun/infrastructure/PAL/exec_commander"
	"cdtun/infrastructure/PAL/linux/netcfg"
	"cdtun/infrastructure/PAL/linux/tun"
	"cdtun/infrastructure/settings"
)

// PlatformTunManager is the Linux-specific ClientTunManager.
type PlatformTunManager struct {
	configurator application.Configurator
	logger       application.Logger

	mu        sync.Mutex
	device    application.TunDevice
	hostRoute string
}

func NewPlatformTunManager(logger application.Logger) application.ClientTunManager {
	return &PlatformTunManager{
		configurator: netcfg.NewConfigurator(exec_commander.NewExecCommander(), logger),
		logger:       logger,
	}
}

// CreateTunDevice opens a tun interface, assigns the negotiated address and
// MTU, and adds the host route to the server. On any failure the partially
// configured device is closed before returning.
func (m *PlatformTunManager) CreateTunDevice(params application.TunnelParameters) (application.TunDevice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	raw, err := tun.Open("")
	if err != nil {
		return nil, fmt.Errorf("tunnel setup: %w", err)
	}
	device := tun.NewDevice(raw)

	if configureErr := m.configurator.Configure(device.Name(), params.Address, params.MTU); configureErr != nil {
		_ = device.Close()
		return nil, fmt.Errorf("tunnel setup: %w", configureErr)
	}

	hostRoute := params.ServerAddress.String() + "/128"
	if routeErr := m.configurator.AddRoute(device.Name(), hostRoute); routeErr != nil {
		_ = device.Close()
		return nil, fmt.Errorf("tunnel setup: %w", routeErr)
	}

	m.mu.Lock()
	m.device = device
	m.hostRoute = hostRoute
	m.mu.Unlock()

	m.logger.Printf("created TUN interface %s (%s/%d, mtu %d)", device.Name(), params.Address, settings.InterfacePrefixLength, params.MTU)
	return device, nil
}

// InterfaceStats reads the byte counters of the managed interface.
func (m *PlatformTunManager) InterfaceStats() (application.TrafficStats, error) {
	m.mu.Lock()
	device := m.device
	m.mu.Unlock()
	if device == nil {
		return application.TrafficStats{}, fmt.Errorf("%w: no active interface", application.ErrStatsUnavailable)
	}
	return m.configurator.Stats(device.Name())
}

// DisposeTunDevices removes the host route and closes the device. Route
// removal is best-effort; closing the interface discards its addresses.
func (m *PlatformTunManager) DisposeTunDevices() error {
	m.mu.Lock()
	device := m.device
	hostRoute := m.hostRoute
	m.device = nil
	m.mu.Unlock()

	if device == nil {
		return nil
	}
	if hostRoute != "" {
		if err := m.configurator.RemoveRoute(device.Name(), hostRoute); err != nil {
			m.logger.Printf("failed to remove route %s: %v", hostRoute, err)
		}
	}
	return device.Close()
}
