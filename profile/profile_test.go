package profile

import "testing"

func TestNew(t *testing.T) {
	p := New(WithMode("cpu"), WithPath("/tmp/out"), nil, WithQuiet(true))

	want := Profiler{Mode: "cpu", Path: "/tmp/out", Quiet: true}
	if p != want {
		t.Errorf("New() = %+v, want %+v", p, want)
	}
}

func TestStart_NoMode(t *testing.T) {
	p := New(WithPath(t.TempDir()))

	if _, ok := p.Start().(ignore); !ok {
		t.Error("Start() without a mode should return a no-op handle")
	}
}

func TestStart_UnknownMode(t *testing.T) {
	p := New(WithMode("bogus"), WithPath(t.TempDir()), WithQuiet(true))

	stop := p.Start()
	if _, ok := stop.(ignore); !ok {
		t.Error("Start() with an unknown mode should return a no-op handle")
	}

	stop.Stop()
}
