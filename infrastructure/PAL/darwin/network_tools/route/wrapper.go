package route

import (
	"cdtun/infrastructure/PAL"
)

type Wrapper struct {
	commander PAL.Commander
}

func NewWrapper(commander PAL.Commander) Contract {
	return &Wrapper{commander: commander}
}

func (w *Wrapper) Add6(cidr string, ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("route", "-n", "add", "-inet6", cidr, "-interface", ifName)
}

func (w *Wrapper) Delete6(cidr string, ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("route", "-n", "delete", "-inet6", cidr, "-interface", ifName)
}
