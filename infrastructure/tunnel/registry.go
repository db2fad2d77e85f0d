package tunnel

import (
	"os"
	osignal "os/signal"
	"sync"

	"golang.org/x/sync/errgroup"

	"cdtun/infrastructure/PAL/signal"
)

// Process-wide registry of active sessions. The shutdown signal hook is
// installed at most once, on first registration; a delivered signal stops
// every registered session concurrently and the process exits.
var (
	registryMu     sync.Mutex
	activeSessions = make(map[*Session]struct{})
	signalHookOnce sync.Once
	exitProcess    = os.Exit
)

func registerSession(s *Session) {
	registryMu.Lock()
	activeSessions[s] = struct{}{}
	registryMu.Unlock()

	signalHookOnce.Do(installSignalHook)
}

func unregisterSession(s *Session) {
	registryMu.Lock()
	delete(activeSessions, s)
	registryMu.Unlock()
}

func installSignalHook() {
	signals := make(chan os.Signal, 1)
	osignal.Notify(signals, signal.NewDefaultProvider().ShutdownSignals()...)
	go func() {
		<-signals
		StopAll()
		exitProcess(0)
	}()
}

// StopAll stops every registered session concurrently and waits for all
// cleanups to finish.
func StopAll() {
	registryMu.Lock()
	sessions := make([]*Session, 0, len(activeSessions))
	for s := range activeSessions {
		sessions = append(sessions, s)
	}
	registryMu.Unlock()

	var group errgroup.Group
	for _, s := range sessions {
		group.Go(s.Stop)
	}
	_ = group.Wait()
}
