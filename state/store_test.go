package state

import (
	"testing"
)

func TestStoreSaveLast(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if snap, err := s.Last(); err != nil || snap != nil {
		t.Fatalf("empty store: %v, %v", snap, err)
	}

	c := testCommit(t, 3, 1, 2, 3)
	if err := s.Save(c); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Last()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Source != "test" || snap.Gradient != "grayscale" || snap.Level != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Summary.Max != 3 {
		t.Errorf("summary max = %v", snap.Summary.Max)
	}
	f, err := snap.Payload.Field()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := f.RawValue(0, 0, 0, 2); v != 3 {
		t.Errorf("restored value = %v", v)
	}
}
