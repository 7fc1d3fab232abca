package binio

import "testing"

func TestReaderRoundTripAndShortLatch(t *testing.T) {
	var w Writer
	w.U8(7)
	w.I16(-2)
	w.I32(-5)
	w.F32(1.5)
	w.FixedString([]byte("abc"), 6)

	r := NewReader(w.Bytes())
	if got := r.U8(); got != 7 {
		t.Fatalf("U8 = %d", got)
	}
	if got := r.I16(); got != -2 {
		t.Fatalf("I16 = %d", got)
	}
	if got := r.I32(); got != -5 {
		t.Fatalf("I32 = %d", got)
	}
	if got := r.F32(); got != 1.5 {
		t.Fatalf("F32 = %v", got)
	}
	if got := string(r.FixedString(6)); got != "abc" {
		t.Fatalf("FixedString = %q", got)
	}
	if r.Short() {
		t.Fatalf("Short before end")
	}
	if got := r.U32(); got != 0 || !r.Short() {
		t.Fatalf("read past end = %d, short=%v", got, r.Short())
	}
}
