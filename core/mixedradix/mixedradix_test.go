package mixedradix

import "testing"

func TestIncrementRipples(t *testing.T) {
	n := New([]uint64{2, 2})
	ok := n.Increment()
	if !ok || n.GetPlace(0) != 0 || n.GetPlace(1) != 1 {
		t.Fatalf("expected (0,1), got (%d,%d) ok=%v", n.GetPlace(0), n.GetPlace(1), ok)
	}

	ok = n.Increment()
	if !ok || n.GetPlace(0) != 1 || n.GetPlace(1) != 0 {
		t.Fatalf("expected (1,0), got (%d,%d) ok=%v", n.GetPlace(0), n.GetPlace(1), ok)
	}

	ok = n.Increment()
	if !ok || n.GetPlace(0) != 1 || n.GetPlace(1) != 1 {
		t.Fatalf("expected (1,1), got (%d,%d) ok=%v", n.GetPlace(0), n.GetPlace(1), ok)
	}

	ok = n.Increment()
	if ok {
		t.Fatalf("expected overflow past (1,1)")
	}
}

// TestIntelligentSkipScenario mirrors spec.md §8 scenario 4: two
// positions each with two groups, skip jumps over low-order digits
// that can never raise the pattern's probability.
func TestIntelligentSkipScenario(t *testing.T) {
	n := New([]uint64{2, 2})
	n.SetPlace(0, 0)
	n.SetPlace(1, 1) // pattern (0,1)

	ok := n.IntelligentSkip()
	if !ok {
		t.Fatalf("expected no overflow")
	}
	if n.GetPlace(0) != 1 || n.GetPlace(1) != 0 {
		t.Fatalf("expected skip to (1,0), got (%d,%d)", n.GetPlace(0), n.GetPlace(1))
	}

	ok = n.IntelligentSkip()
	if ok {
		t.Fatalf("expected overflow after skipping past (1,0)")
	}
}

func TestNewRejectsZeroBase(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing Number with a zero base")
		}
	}()
	New([]uint64{2, 0, 3})
}

func TestDeepCopyIsIndependent(t *testing.T) {
	n := New([]uint64{3, 3})
	n.SetPlace(0, 1)
	cp := n.DeepCopy()
	cp.SetPlace(0, 2)

	if n.GetPlace(0) != 1 {
		t.Fatalf("mutating copy affected original")
	}
	if cp.GetPlace(0) != 2 {
		t.Fatalf("copy did not retain its own mutation")
	}
}
