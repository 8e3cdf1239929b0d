package observability

import (
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	// Cascade hooks
	c := NoopCascadeHooks{}
	c.OnCascade(7, 2, 3, true)
	c.OnToggle("[Main] Upscale", false, true)

	// Panel hooks
	p := NoopPanelHooks{}
	p.OnRebuild(4, true)
	p.OnSync(4, time.Millisecond)
	p.OnNotReady(1, errors.New("not ready"))

	// Host hooks
	h := NoopHostHooks{}
	h.OnHostError("recompute", errors.New("bad bounding"))
}

func TestWithDefaults(t *testing.T) {
	h := Hooks{}.WithDefaults()

	if _, ok := h.Cascade.(NoopCascadeHooks); !ok {
		t.Error("Cascade should default to NoopCascadeHooks")
	}
	if _, ok := h.Panel.(NoopPanelHooks); !ok {
		t.Error("Panel should default to NoopPanelHooks")
	}
	if _, ok := h.Host.(NoopHostHooks); !ok {
		t.Error("Host should default to NoopHostHooks")
	}
}

func TestWithDefaultsKeepsCustomHooks(t *testing.T) {
	custom := &testCascadeHooks{}
	h := Hooks{Cascade: custom}.WithDefaults()

	if h.Cascade != custom {
		t.Error("WithDefaults should keep a custom Cascade hook")
	}
	if _, ok := h.Panel.(NoopPanelHooks); !ok {
		t.Error("WithDefaults should fill the nil Panel hook")
	}
}

func TestNoop(t *testing.T) {
	h := Noop()
	if h.Cascade == nil || h.Panel == nil || h.Host == nil {
		t.Error("Noop() should populate every hook")
	}
}

// Test implementations
type testCascadeHooks struct{ NoopCascadeHooks }
