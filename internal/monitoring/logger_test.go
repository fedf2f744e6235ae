package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	Logf("dropped %d rows", 3)
	if got != "dropped 3 rows" {
		t.Errorf("got %q", got)
	}
}

func TestSetLoggerNilDisables(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("ignored %s", "message")
}
