package lookup

import "testing"

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{CanParse, "CanParse"},
		{CanParse | BeyondCutoff, "CanParse"},
		{TerminalCollision, "TerminalCollision"},
		{UnexpectedFailure, "UnexpectedFailure"},
		{TerminalCantBeGenerated, "TerminalCantBeGenerated"},
		{TerminalNotFound, "TerminalNotFound"},
		{StructureNotFound, "StructureNotFound"},
		{BeyondCutoff, "BeyondCutoff"},
		{0, "Unknown"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("Status(%d).String() = %q, want %q", c.status, got, c.want)
		}
	}
}

func TestStatusHas(t *testing.T) {
	s := CanParse | BeyondCutoff
	if !s.Has(CanParse) || !s.Has(BeyondCutoff) {
		t.Fatalf("expected both flags set in %v", s)
	}
	if s.Has(TerminalNotFound) {
		t.Fatalf("did not expect TerminalNotFound set in %v", s)
	}
}

func TestFail(t *testing.T) {
	d := Fail(StructureNotFound)
	if d.Status != StructureNotFound {
		t.Fatalf("expected Status %v, got %v", StructureNotFound, d.Status)
	}
	if d.Index != nil {
		t.Fatalf("expected nil Index on failure, got %v", d.Index)
	}
}

func TestUnionSourceIDs(t *testing.T) {
	a := SourceIDSet([]string{"rockyou"})
	b := SourceIDSet([]string{"linkedin", "rockyou"})

	merged := UnionSourceIDs(a, b)
	if len(merged) != 2 {
		t.Fatalf("expected 2 source ids, got %d: %v", len(merged), merged)
	}
	for _, id := range []string{"rockyou", "linkedin"} {
		if _, ok := merged[id]; !ok {
			t.Fatalf("expected %q in merged set %v", id, merged)
		}
	}
}

func TestUnionSourceIDsNilDestination(t *testing.T) {
	merged := UnionSourceIDs(nil, SourceIDSet([]string{"x"}))
	if len(merged) != 1 {
		t.Fatalf("expected 1 source id, got %d", len(merged))
	}
}

func TestSourceIDSet(t *testing.T) {
	set := SourceIDSet([]string{"a", "b", "a"})
	if len(set) != 2 {
		t.Fatalf("expected deduped set of 2, got %d: %v", len(set), set)
	}
}
