package bitvec

import "testing"

type pipID int

func TestSetGet(t *testing.T) {
	b := New[pipID](130)
	if b.Len() != 130 {
		t.Fatalf("expected len 130, got %d", b.Len())
	}
	for _, i := range []pipID{0, 63, 64, 129} {
		if b.Get(i) {
			t.Errorf("bit %d set on fresh vector", i)
		}
		b.Set(i, true)
		if !b.Get(i) {
			t.Errorf("bit %d not set after Set", i)
		}
	}
	if b.Count() != 4 {
		t.Errorf("expected 4 bits set, got %d", b.Count())
	}
	b.Set(63, false)
	if b.Get(63) {
		t.Errorf("bit 63 still set after clearing")
	}
}

func TestClaim(t *testing.T) {
	b := New[pipID](8)
	if b.Claim(3) {
		t.Errorf("first claim reported previous value true")
	}
	if !b.Claim(3) {
		t.Errorf("second claim reported previous value false")
	}
}

func TestEachAscending(t *testing.T) {
	b := New[pipID](70)
	b.Set(65, true)
	b.Set(2, true)
	var got []pipID
	b.Each(true, func(i pipID) { got = append(got, i) })
	if len(got) != 2 || got[0] != 2 || got[1] != 65 {
		t.Errorf("expected [2 65], got %v", got)
	}
	unset := 0
	b.Each(false, func(pipID) { unset++ })
	if unset != 68 {
		t.Errorf("expected 68 clear bits, got %d", unset)
	}
}

func TestAll(t *testing.T) {
	if !New[pipID](0).All() {
		t.Errorf("empty vector should be full")
	}
	b := New[pipID](2)
	b.Set(0, true)
	if b.All() {
		t.Errorf("half-set vector reported full")
	}
	b.Set(1, true)
	if !b.All() {
		t.Errorf("fully set vector reported not full")
	}
}

func TestOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for out-of-range index")
		}
	}()
	New[pipID](4).Get(4)
}
