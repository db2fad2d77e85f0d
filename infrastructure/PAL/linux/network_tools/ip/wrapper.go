package ip

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

func (w *Wrapper) Addr6Add(ifName string, cidr string) ([]byte, error) {
	return w.commander.CombinedOutput("ip", "-6", "addr", "add", cidr, "dev", ifName)
}

func (w *Wrapper) LinkSetUpMTU(ifName string, mtu int) ([]byte, error) {
	return w.commander.CombinedOutput("ip", "link", "set", "dev", ifName, "up", "mtu", strconv.Itoa(mtu))
}

func (w *Wrapper) Route6Add(cidr string, ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("ip", "-6", "route", "add", cidr, "dev", ifName)
}

func (w *Wrapper) Route6Del(cidr string, ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("ip", "-6", "route", "del", cidr, "dev", ifName)
}

func (w *Wrapper) LinkStats(ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("ip", "-s", "link", "show", ifName)
}
