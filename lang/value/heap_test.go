package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/value"
)

func TestCollectWithNoRootsDropsInternedStrings(t *testing.T) {
	h := value.NewHeap()
	first := h.NewString("ephemeral")
	require.NotNil(t, first)

	// no roots reachable: the collector should drop "ephemeral" from the
	// intern table, so re-interning the same content allocates a fresh
	// object instead of returning `first`.
	h.Collect(func(mark func(value.Value)) {})

	second := h.NewString("ephemeral")
	assert.NotSame(t, first, second, "unreachable interned string must not survive a GC with no roots")
}

func TestCollectKeepsRootedStringsInterned(t *testing.T) {
	h := value.NewHeap()
	kept := h.NewString("kept")

	h.Collect(func(mark func(value.Value)) {
		mark(kept)
	})

	again := h.NewString("kept")
	assert.Same(t, kept, again, "a string reachable from roots must survive and remain the canonical instance")
}

func TestCollectTracesThroughObjectGraph(t *testing.T) {
	h := value.NewHeap()
	class := h.NewClass(h.NewString("C"))
	method := h.NewClosure(h.NewFunction())
	class.Methods.Set(h.NewString("m"), method)
	instance := h.NewInstance(class)
	fieldVal := h.NewString("field-value")
	instance.Fields.Set(h.NewString("f"), fieldVal)

	h.Collect(func(mark func(value.Value)) {
		mark(instance)
	})

	// instance -> class -> method's closure -> function, and
	// instance -> fields -> fieldVal, must all have survived by being
	// reachable transitively from the one rooted value.
	v, ok := instance.Fields.Get(h.NewString("f"))
	require.True(t, ok)
	assert.Same(t, fieldVal, v)

	m, ok := class.Methods.Get(h.NewString("m"))
	require.True(t, ok)
	assert.Same(t, method, m)
}

func TestShouldCollectReflectsStressMode(t *testing.T) {
	h := value.NewHeap()
	assert.False(t, h.ShouldCollect())
	h.StressGC = true
	assert.True(t, h.ShouldCollect())
}
