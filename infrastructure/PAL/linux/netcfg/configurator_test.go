package netcfg

import (
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
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

func TestConfigure_RejectsNonIPv6BeforeAnyCommand(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	err := c.Configure("tun0", netip.MustParseAddr("10.0.0.1"), 1500)
	if !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(commander.calls) != 0 {
		t.Fatalf("expected no commands, got %v", commander.calls)
	}
}

func TestConfigure_RejectsOutOfRangeMTU(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	err := c.Configure("tun0", netip.MustParseAddr("fd00::3"), 100)
	if !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "MTU must be between 1280 and 65535") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(commander.calls) != 0 {
		t.Fatalf("expected no commands, got %v", commander.calls)
	}
}

func TestConfigure_CommandSurface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.Configure("tun0", netip.MustParseAddr("fd00::2"), 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{
		{"ip", "-6", "addr", "add", "fd00::2/64", "dev", "tun0"},
		{"ip", "link", "set", "dev", "tun0", "up", "mtu", "1500"},
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

func TestConfigure_AddressAlreadyExistsIsSuccess(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("RTNETLINK answers: File exists", errors.New("exit status 2"))
	commander.respond("", nil)
	logger := &ConfiguratorTestMockLogger{}
	c := NewConfigurator(commander, logger)

	if err := c.Configure("tun0", netip.MustParseAddr("fd00::2"), 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "already present") {
		t.Fatalf("expected an already-present log line, got %v", logger.lines)
	}
	if len(commander.calls) != 2 {
		t.Fatalf("expected the mtu command to still run, got %v", commander.calls)
	}
}

func TestConfigure_PermissionDenied(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("RTNETLINK answers: Operation not permitted", errors.New("exit status 2"))
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	err := c.Configure("tun0", netip.MustParseAddr("fd00::2"), 1500)
	if !errors.Is(err, application.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestConfigure_ToolingMissing(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("", exec.ErrNotFound)
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	err := c.Configure("tun0", netip.MustParseAddr("fd00::2"), 1500)
	if !errors.Is(err, application.ErrToolingMissing) {
		t.Fatalf("expected ErrToolingMissing, got %v", err)
	}
}

func TestAddRoute_EmptyRouteRejected(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.AddRoute("tun0", ""); !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(commander.calls) != 0 {
		t.Fatal("expected no commands for an empty route")
	}
}

func TestAddRoute_CommandSurface(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if err := c.AddRoute("tun0", "fd00::1/128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "ip -6 route add fd00::1/128 dev tun0"
	if strings.Join(commander.calls[0], " ") != want {
		t.Fatalf("expected %q, got %v", want, commander.calls[0])
	}
}

func TestRemoveRoute_MissingRouteIsSuccess(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("RTNETLINK answers: No such process", errors.New("exit status 2"))
	logger := &ConfiguratorTestMockLogger{}
	c := NewConfigurator(commander, logger)

	if err := c.RemoveRoute("tun0", "fd00::1/128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.lines) != 1 {
		t.Fatalf("expected a log line, got %v", logger.lines)
	}
}

const linkStatsOutput = `2: tun0: <POINTOPOINT,UP,LOWER_UP> mtu 1500 qdisc fq_codel state UNKNOWN mode DEFAULT group default qlen 500
    link/none
    RX: bytes  packets  errors  dropped overrun mcast
    123456     789      0       0       0       0
    TX: bytes  packets  errors  dropped carrier collsns
    654321     987      0       0       0       0       `

func TestStats_ParsesCounters(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond(linkStatsOutput, nil)
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	stats, err := c.Stats("tun0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RxBytes != 123456 || stats.TxBytes != 654321 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStats_MissingCounters(t *testing.T) {
	commander := &ConfiguratorTestMockCommander{}
	commander.respond("2: tun0: <POINTOPOINT,UP>\n    link/none", nil)
	c := NewConfigurator(commander, &ConfiguratorTestMockLogger{})

	if _, err := c.Stats("tun0"); !errors.Is(err, application.ErrStatsUnavailable) {
		t.Fatalf("expected ErrStatsUnavailable, got %v", err)
	}
}
