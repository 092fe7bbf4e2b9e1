package build

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "bipbuf dev (unknown)") {
		t.Errorf("String() = %q", s)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Go == "" {
		t.Errorf("Get() = %+v", info)
	}
}
