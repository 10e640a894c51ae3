// Package guard flips the runtime into test mode before any test in the
// importing package runs, so binaries under test skip real startup.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("JUMUIYA_TEST_MODE") == "" {
			_ = os.Setenv("JUMUIYA_TEST_MODE", "1")
		}
	})
}
