package infra

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ErrPanic marks errors converted from a recovered panic.
var ErrPanic = errors.New("panic")

// PanicError converts a recovered value into an error carrying the location
// of the panicking frame. Call it directly from the deferred function.
func PanicError(recovered any) error {
	return errors.WithMessagef(ErrPanic, "%v at %s", recovered, identifyPanic(4))
}

func identifyPanic(skip int) string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(skip, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}

	return fmt.Sprintf("pc:%x", pc)
}
