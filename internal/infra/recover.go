package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f, restarting it after a panic. A negative budget
// restarts forever; zero aborts the process on the first panic.
func GoRecoverable(restartBudget int, id string, f func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		entry := log.WithField("job", id).WithField("at", panicLocation())
		entry.Errorf("panic: %v", r)
		if restartBudget == 0 {
			entry.Fatal("restart budget exhausted, exiting")
		}
		if restartBudget > 0 {
			restartBudget--
		}
		entry.WithField("budget", restartBudget).Debug("restarting job")
		go GoRecoverable(restartBudget, id, f)
	}()
	f()
}

// panicLocation walks past the runtime frames to the frame that panicked.
func panicLocation() string {
	var pc [16]uintptr
	n := runtime.Callers(3, pc[:])
	for _, caller := range pc[:n] {
		fn := runtime.FuncForPC(caller)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if strings.HasPrefix(name, "runtime.") {
			continue
		}
		_, line := fn.FileLine(caller)
		return fmt.Sprintf("%s:%d", name, line)
	}
	return "unknown"
}
