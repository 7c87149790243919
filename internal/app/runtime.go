package app

import (
	"os"
	"sync"
)

const testModeEnv = "CHEMTRADE_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the binaries should exit before touching any
// external store. CI smoke-builds both binaries with the flag set.
func InTestMode() bool {
	return inTestMode()
}
