package shadow

import "fmt"

// assertf panics when cond is false in builds tagged shadowdebug. Release
// builds compile it to nothing.
func assertf(cond bool, format string, args ...any) {
	if debugAssertions && !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
