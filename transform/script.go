package transform

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// ScriptTimeout limits single fallback script invocation.
var ScriptTimeout = time.Second

// ScriptFallback compiles src, a JavaScript function expression such as
// "(origin, num, unit) => origin", into FallbackFunc. Result of the call is
// converted to string the way JavaScript template literals do.
func ScriptFallback(src string) (FallbackFunc, error) {
	vm := goja.New()
	v, err := vm.RunString("(" + src + "\n)")
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate fallback script: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("fallback script does not evaluate to a function")
	}

	// goja runtime is not goroutine safe
	var mu sync.Mutex
	return func(origin, num, unit string) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		vm.ClearInterrupt()
		var (
			tmu      sync.Mutex
			finished bool
		)
		timer := time.AfterFunc(ScriptTimeout, func() {
			tmu.Lock()
			defer tmu.Unlock()
			if !finished {
				vm.Interrupt("fallback script timed out")
			}
		})
		res, err := fn(goja.Undefined(), vm.ToValue(origin), vm.ToValue(num), vm.ToValue(unit))
		// late timer must not interrupt the next call
		tmu.Lock()
		finished = true
		tmu.Unlock()
		timer.Stop()
		vm.ClearInterrupt()

		if err != nil {
			return "", fmt.Errorf("fallback script failed: %w", err)
		}
		return res.String(), nil
	}, nil
}
