package netstat

import (
	"cdtun/infrastructure/PAL"
)

type Wrapper struct {
	commander PAL.Commander
}

func NewWrapper(commander PAL.Commander) Contract {
	return &Wrapper{commander: commander}
}

func (w *Wrapper) InterfaceStats(ifName string) ([]byte, error) {
	return w.commander.CombinedOutput("netstat", "-I", ifName, "-b")
}
