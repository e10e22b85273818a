package passes

import (
	"strings"
	"testing"
)

func TestLittleEndianHeapRewritesStoreAndLoad(t *testing.T) {
	src := `HEAP32[ptr >> 2] = 5; var x = HEAP32[ptr >> 2];`
	out := runPassNamed(t, src, "littleEndianHeap")
	if !contains(out, "LE_HEAP_STORE_I32(", "LE_HEAP_LOAD_I32(") {
		t.Errorf("expected LE_HEAP_STORE_I32/LE_HEAP_LOAD_I32 calls, got: %s", out)
	}
}

func TestLittleEndianHeapRewritesAtomics(t *testing.T) {
	src := `Atomics.add(HEAP32, ptr >> 2, 1);`
	out := runPassNamed(t, src, "littleEndianHeap")
	if !strings.Contains(out, "LE_ATOMICS_ADD(") {
		t.Errorf("expected LE_ATOMICS_ADD call, got: %s", out)
	}
}

func TestLittleEndianHeapLeavesByteWideViewsAlone(t *testing.T) {
	src := `HEAP8[ptr] = 5; var x = HEAPU8[ptr];`
	out := runPassNamed(t, src, "littleEndianHeap")
	if strings.Contains(out, "LE_HEAP") {
		t.Errorf("expected byte-wide HEAP8/HEAPU8 accesses to survive untouched, got: %s", out)
	}
}

func TestGrowableHeapWrapsBareHeapIdentifier(t *testing.T) {
	src := `var x = HEAP32[ptr >> 2];`
	out := runPassNamed(t, src, "growableHeap")
	if !contains(out, "growMemViews(", "HEAP32") {
		t.Errorf("expected HEAP32 to be wrapped in a growMemViews() sequence, got: %s", out)
	}
}

func TestGrowableHeapExemptsAssignmentLHS(t *testing.T) {
	src := `HEAP32 = new Int32Array(buffer);`
	out := runPassNamed(t, src, "growableHeap")
	if strings.Contains(out, "growMemViews(") {
		t.Errorf("expected the assignment target itself to stay unwrapped, got: %s", out)
	}
	if !strings.Contains(out, "HEAP32 = new Int32Array") {
		t.Errorf("expected the reassignment to survive verbatim, got: %s", out)
	}
}

func TestGrowableHeapSkipsExportDeclarations(t *testing.T) {
	src := `export var HEAP32 = x;`
	out := runPassNamed(t, src, "growableHeap")
	if strings.Contains(out, "growMemViews(") {
		t.Errorf("expected export declarations to be skipped entirely, got: %s", out)
	}
}

func TestGrowableHeapSkipsHelperBodies(t *testing.T) {
	src := `function growMemViews() { return HEAP32; }`
	out := runPassNamed(t, src, "growableHeap")
	if strings.Contains(out, "growMemViews(), HEAP32") {
		t.Errorf("expected growMemViews' own body to be left untouched, got: %s", out)
	}
}

func TestUnsignPointersFlipsExistingShift(t *testing.T) {
	src := `var x = HEAP32[ptr >> 2];`
	out := runPassNamed(t, src, "unsignPointers")
	if !strings.Contains(out, ">>> 2") {
		t.Errorf("expected >> to be flipped to >>>, got: %s", out)
	}
}

func TestUnsignPointersWrapsPlainIndex(t *testing.T) {
	src := `var x = HEAP32[n];`
	out := runPassNamed(t, src, "unsignPointers")
	if !strings.Contains(out, "n >>> 0") {
		t.Errorf("expected a plain index to be wrapped in >>> 0, got: %s", out)
	}
}

func TestUnsignPointersRoundTripWrapsTwice(t *testing.T) {
	// unsign is not a projection: applying the pass output through the pass
	// again wraps a second time rather than being a no-op, since only a bare
	// ">>" operator is flipped in place; an existing ">>>" is wrapped again.
	first := runPassNamed(t, `var x = HEAP32[n];`, "unsignPointers")
	if !strings.Contains(first, "n >>> 0") {
		t.Fatalf("expected first pass to wrap n, got: %s", first)
	}
	second := runPassNamed(t, first, "unsignPointers")
	if strings.Count(second, ">>> 0") != 2 {
		t.Errorf("expected a second pass to wrap again instead of being a no-op, got: %s", second)
	}
}

func TestUnsignPointersUnsignsSetSubarrayCopyWithinArgs(t *testing.T) {
	src := `HEAP8.set(data, ptr); HEAP8.subarray(a, b); HEAP8.copyWithin(a, b, c);`
	out := runPassNamed(t, src, "unsignPointers")
	if !contains(out, "HEAP8.set(data, (ptr >>> 0))", "HEAP8.subarray((a >>> 0), (b >>> 0))", "HEAP8.copyWithin((a >>> 0), (b >>> 0), (c >>> 0))") {
		t.Errorf("expected pointer arguments of set/subarray/copyWithin to be unsigned, got: %s", out)
	}
}

func TestAsanifyEmitsLoadAndStoreCalls(t *testing.T) {
	src := `HEAP32[ptr >> 2] = 5; var x = HEAP32[ptr >> 2];`
	out := runPassNamed(t, src, "asanify")
	if !contains(out, "_asan_js_store(HEAP32,", "_asan_js_load(HEAP32,") {
		t.Errorf("expected _asan_js_store/_asan_js_load calls with HEAP32 as the object arg, got: %s", out)
	}
}

func TestAsanifySkipsItsOwnHelpersAndStackSetup(t *testing.T) {
	src := `function _asan_js_load(obj, p) { return HEAP32[p]; } function establishStackSpace() { return HEAP32[0]; }`
	out := runPassNamed(t, src, "asanify")
	if strings.Contains(out, "_asan_js_load(HEAP32") {
		t.Errorf("expected asanify's own helper bodies to be left untouched, got: %s", out)
	}
}

func TestSafeHeapEmitsLoadAndStoreCalls(t *testing.T) {
	src := `HEAP32[ptr >> 2] = 5; var x = HEAP32[ptr >> 2];`
	out := runPassNamed(t, src, "safeHeap")
	if !contains(out, "SAFE_HEAP_STORE(HEAP32,", "SAFE_HEAP_LOAD(HEAP32,") {
		t.Errorf("expected SAFE_HEAP_STORE/SAFE_HEAP_LOAD calls with HEAP32 as the object arg, got: %s", out)
	}
}

func TestSafeHeapSkipsHelperBodies(t *testing.T) {
	src := `function SAFE_HEAP_LOAD(obj, p) { return HEAP32[p]; }`
	out := runPassNamed(t, src, "safeHeap")
	if strings.Contains(out, "SAFE_HEAP_LOAD(HEAP32") {
		t.Errorf("expected SAFE_HEAP_LOAD's own body to be left untouched, got: %s", out)
	}
}
