package storage

import "testing"

func TestAppendAndIterate(t *testing.T) {
	sub := NewVolatileSubstrate()
	fid, err := sub.CreateHeapFile()
	if err != nil {
		t.Fatalf("CreateHeapFile: %v", err)
	}
	hf, err := sub.OpenHeapFile(fid)
	if err != nil {
		t.Fatalf("OpenHeapFile: %v", err)
	}

	r1, err := hf.Append([]byte("hello"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if r1.Slot != 1 {
		t.Fatalf("first record slot = %d, want 1", r1.Slot)
	}
	if _, err := hf.Append([]byte("world!!")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	it := hf.Iterate()
	var got []string
	for it.Next() {
		got = append(got, string(trimPad(it.Current())))
	}
	if len(got) != 2 || got[0] != "hello" || got[1] != "world!!" {
		t.Fatalf("iterate got %v", got)
	}
	it.End()
}

func TestUpdateCurrentInPlace(t *testing.T) {
	sub := NewVolatileSubstrate()
	fid, _ := sub.CreateHeapFile()
	hf, _ := sub.OpenHeapFile(fid)
	hf.Append([]byte("abcdefgh"))

	it := hf.Iterate()
	if !it.Next() {
		t.Fatalf("expected a record")
	}
	if err := hf.UpdateCurrent(it, []byte("xyz")); err != nil {
		t.Fatalf("UpdateCurrent: %v", err)
	}

	it2 := hf.Iterate()
	if !it2.Next() {
		t.Fatalf("expected a record after update")
	}
	if got := string(trimPad(it2.Current())); got != "xyz" {
		t.Fatalf("got %q, want xyz", got)
	}
	if it2.Next() {
		t.Fatalf("expected only one live record, in-place update should not append")
	}
}

func TestUpdateCurrentOverflowAppends(t *testing.T) {
	sub := NewVolatileSubstrate()
	fid, _ := sub.CreateHeapFile()
	hf, _ := sub.OpenHeapFile(fid)
	hf.Append([]byte("ab"))

	it := hf.Iterate()
	it.Next()
	if err := hf.UpdateCurrent(it, []byte("a much longer replacement record")); err != nil {
		t.Fatalf("UpdateCurrent: %v", err)
	}

	it2 := hf.Iterate()
	n := 0
	for it2.Next() {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one live record after overflow update, got %d", n)
	}
}

func TestIterateFrom(t *testing.T) {
	sub := NewVolatileSubstrate()
	fid, _ := sub.CreateHeapFile()
	hf, _ := sub.OpenHeapFile(fid)
	hf.Append([]byte("one"))
	r2, _ := hf.Append([]byte("two"))
	hf.Append([]byte("three"))

	it, err := hf.IterateFrom(r2)
	if err != nil {
		t.Fatalf("IterateFrom: %v", err)
	}
	if !it.Next() {
		t.Fatalf("expected a record")
	}
	if got := string(trimPad(it.Current())); got != "two" {
		t.Fatalf("got %q, want two", got)
	}
}

func TestRawFileRoundTrip(t *testing.T) {
	sub := NewVolatileSubstrate()
	fid, err := sub.CreateDBMetaFile()
	if err != nil {
		t.Fatalf("CreateDBMetaFile: %v", err)
	}
	rf, err := sub.OpenRawFile(fid)
	if err != nil {
		t.Fatalf("OpenRawFile: %v", err)
	}
	h, buf := rf.FirstPage()
	buf[0] = 42
	rf.MarkDirty(h)
	rf.ReleasePage(h)

	_, buf2 := rf.FirstPage()
	if buf2[0] != 42 {
		t.Fatalf("expected the write to persist across FirstPage calls")
	}
}

// trimPad strips the zero-byte padding Append adds to reach maxAlign.
func trimPad(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}
