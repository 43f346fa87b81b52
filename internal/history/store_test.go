package history

import "testing"

func TestStoreAddAndCurrent(t *testing.T) {
	s := New()
	s.Add("one")
	s.Add("two")
	s.Add("three")

	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if got := s.Base(); got != 1 {
		t.Fatalf("Base() = %d, want 1", got)
	}

	e, ok := s.Previous()
	if !ok || e.Line != "three" {
		t.Fatalf("Previous() = %+v, %v, want three", e, ok)
	}
	e, ok = s.Previous()
	if !ok || e.Line != "two" {
		t.Fatalf("Previous() = %+v, %v, want two", e, ok)
	}
	e, ok = s.Next()
	if !ok || e.Line != "three" {
		t.Fatalf("Next() = %+v, %v, want three", e, ok)
	}
}

func TestStoreStifleEvictsOldest(t *testing.T) {
	s := New()
	s.Stifle(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		s.Add(line)
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if got := s.Base(); got != 3 {
		t.Fatalf("Base() = %d, want 3", got)
	}
	all := s.All()
	want := []string{"c", "d", "e"}
	for i, w := range want {
		if all[i].Line != w {
			t.Fatalf("All()[%d] = %q, want %q", i, all[i].Line, w)
		}
	}
}

func TestStoreUnstifleLinearizes(t *testing.T) {
	s := New()
	s.Stifle(2)
	s.Add("a")
	s.Add("b")
	s.Add("c")
	s.Unstifle()
	s.Add("d")
	s.Add("e")

	all := s.All()
	want := []string{"b", "c", "d", "e"}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for i, w := range want {
		if all[i].Line != w {
			t.Fatalf("All()[%d] = %q, want %q", i, all[i].Line, w)
		}
	}
}

func TestStoreReplace(t *testing.T) {
	s := New()
	s.Add("one")
	s.Add("two")
	old, err := s.Replace(s.Base()+1, "TWO", nil)
	if err != nil {
		t.Fatal(err)
	}
	if old.Line != "two" {
		t.Fatalf("old.Line = %q, want two", old.Line)
	}
	e, ok := s.Get(s.Base() + 1)
	if !ok || e.Line != "TWO" {
		t.Fatalf("Get() = %+v, %v, want TWO", e, ok)
	}
}

func TestStoreRemoveRange(t *testing.T) {
	s := New()
	for _, line := range []string{"a", "b", "c", "d"} {
		s.Add(line)
	}
	base := s.Base()
	if _, err := s.RemoveRange(base, base+1); err != nil {
		t.Fatal(err)
	}
	all := s.All()
	want := []string{"c", "d"}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for i, w := range want {
		if all[i].Line != w {
			t.Fatalf("All()[%d] = %q, want %q", i, all[i].Line, w)
		}
	}
	if got := s.Base(); got != base+2 {
		t.Fatalf("Base() = %d, want %d", got, base+2)
	}
}

func TestStoreSetPosClampsAtEnds(t *testing.T) {
	s := New()
	s.Add("a")
	s.Add("b")
	base := s.Base()

	s.SetPos(base - 100)
	if e, ok := s.Current(); !ok || e.Line != "a" {
		t.Fatalf("Current() after underflow SetPos = %+v, %v, want a", e, ok)
	}

	s.SetPos(base + 100)
	if _, ok := s.Current(); ok {
		t.Fatalf("Current() after overflow SetPos should be past-end")
	}
}
