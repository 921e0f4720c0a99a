package tests

import (
	"os"
	"testing"

	"github.com/Reema362/avocop/core"
)

func TestMain(m *testing.M) {
	// clean error bodies, no Recover middleware
	core.Conf.Debug = false
	core.Conf.TestMode = true

	os.Exit(m.Run())
}
