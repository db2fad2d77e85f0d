package netcfg

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"testing"

	"cdtun/application"
)

type ConfiguratorTestMockCommander struct {
	calls   [][]string
	outputs []struct {
		out []byte
		err error
	}
}

func (m *ConfiguratorTestMockCommander) respond(out string, err error) {
	m.outputs = append(m.outputs, struct {
		out []byte
		err error
	}{[]byte(out), err})
}

func (m *ConfiguratorTestMockCommander) CombinedOutput(name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if len(m.outputs) == 0 {
		return nil, nil
	}
	next := m.outputs[0]
	m.outputs = m.outputs[1:]
	return next.out, next.err
}

func (m *ConfiguratorTestMockCommander) Output(name string, args ...string) ([]byte, error) {
	return m.CombinedOutput(name, args...)
}

type ConfiguratorTestMockLogger struct {
	lines []string
}

func (m *ConfiguratorTestMockLogger) Printf(format string, v ...any) {
	m.lines = append(m.lines, fmt.Sprintf(format, v...))
}

func TestConfigure_CommandSurface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.Configure("utun5", netip.MustParseAddr("fd00::2"), 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{
		{"ifconfig", "utun5", "inet6", "fd00::2", "prefixlen", "64", "up"},
		{"ifconfig", "utun5", "mtu", "1500"},
	}
	if len(commander.calls) != len(want) {
		t.Fatalf("expected %d commands, got %v", len(want), commander.calls)
	}
	for i := range want {
		if strings.Join(commander.calls[i], " ") != strings.Join(want[i], " ") {
			t.Fatalf("command %d: expected %v, got %v", i, want[i], commander.calls[i])
		}
	}
}

func TestConfigure_ValidationPrecedesCommands(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.Configure("utun5", netip.MustParseAddr("192.168.0.1"), 1500); !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := c.Configure("utun5", netip.MustParseAddr("fd00::2"), 70000); !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(commander.calls) != 0 {
		t.Fatalf("expected no commands, got %v", commander.calls)
	}
}

func TestConfigure_ZonedAddressAccepted(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.Configure("utun5", netip.MustParseAddr("fe80::1%utun5"), 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commander.calls) != 2 {
		t.Fatalf("expected commands to run, got %v", commander.calls)
	}
}

func TestAddRoute_CommandSurface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.AddRoute("utun5", "fd00::1/128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "route -n add -inet6 fd00::1/128 -interface utun5"
	if strings.Join(commander.calls[0], " ") != want {
		t.Fatalf("expected %q, got %v", want, commander.calls[0])
	}
}

func TestAddRoute_AlreadyExistsIsSuccess(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("route: writing to routing socket: File exists", errors.New("exit status 1"))
	logger := &ConfiguratorTestMockLogger{}
	c := NewConfigurator(commander, logger)

	if err := c.AddRoute("utun5", "fd00::1/128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.lines) != 1 {
		t.Fatalf("expected a log line, got %v", logger.lines)
	}
}

func TestRemoveRoute_CommandSurface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.RemoveRoute("utun5", "fd00::1/128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "route -n delete -inet6 fd00::1/128 -interface utun5"
	if strings.Join(commander.calls[0], " ") != want {
		t.Fatalf("expected %q, got %v", want, commander.calls[0])
	}
}

const netstatOutput = `Name       Mtu   Network       Address            Ipkts Ierrs     Ibytes    Opkts Oerrs     Obytes  Coll
utun5      1500  <Link#15>                          100     0      12345      200     0      54321     0`

func TestStats_ParsesCounters(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond(netstatOutput, nil)
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	stats, err := c.Stats("utun5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RxBytes != 12345 || stats.TxBytes != 54321 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStats_NoMatchingInterface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("Name  Mtu  Network  Address  Ipkts Ierrs Ibytes Opkts Oerrs Obytes Coll", nil)
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if _, err := c.Stats("utun5"); !errors.Is(err, application.ErrStatsUnavailable) {
		t.Fatalf("expected ErrStatsUnavailable, got %v", err)
	}
}
