package ifconfig

import (
	"strconv"

	"cdtun/infrastructure/PAL"
)

type Wrapper struct {
	commander PAL.Commander
}

func NewWrapper(commander PAL.Commander) Contract {
	return &Wrapper{commander: commander}
}

// Addr6Add assigns an IPv6 address to the interface and brings it up.
func (w *Wrapper) Addr6Add(ifName string, addr string, prefixLen int) ([]byte, error) {
	return w.commander.CombinedOutput("ifconfig", ifName, "inet6", addr, "prefixlen", strconv.Itoa(prefixLen), "up")
}

func (w *Wrapper) SetMTU(ifName string, mtu int) ([]byte, error) {
	return w.commander.CombinedOutput("ifconfig", ifName, "mtu", strconv.Itoa(mtu))
}
