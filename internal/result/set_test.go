package result

import (
	"reflect"
	"testing"
)

func TestSetOperations(t *testing.T) {
	a := New("1", "2", "3")
	b := New("2", "3", "4")

	cases := []struct {
		name string
		got  Set
		want Set
	}{
		{"union", a.Union(b), New("1", "2", "3", "4")},
		{"intersect", a.Intersect(b), New("2", "3")},
		{"difference", a.Difference(b), New("1")},
		{"symmetric difference", a.SymmetricDifference(b), New("1", "4")},
		{"union with empty", a.Union(New()), a},
		{"intersect with empty", a.Intersect(New()), New()},
		{"difference of itself", a.Difference(a), New()},
		{"symmetric difference of itself", a.SymmetricDifference(a), New()},
		{"intersect idempotent", a.Intersect(a), a},
		{"union idempotent", a.Union(a), a},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.got.Equal(tc.want) {
				t.Errorf("got %v, want %v", tc.got.Members(), tc.want.Members())
			}
		})
	}
}

func TestSetRelations(t *testing.T) {
	a := New("1", "2")
	b := New("1", "2", "3")

	if !a.SubsetOf(b) {
		t.Error("a should be a subset of b")
	}
	if !a.SubsetOf(a) {
		t.Error("a set is a subset of itself")
	}
	if !a.ProperSubsetOf(b) {
		t.Error("a should be a proper subset of b")
	}
	if a.ProperSubsetOf(a) {
		t.Error("a set is not a proper subset of itself")
	}
	if b.SubsetOf(a) {
		t.Error("b is not a subset of a")
	}
	if !a.Intersect(b).SubsetOf(a) {
		t.Error("an intersection is a subset of either operand")
	}
}

func TestSetMembers(t *testing.T) {
	s := New("b", "a", "c", "a")
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (duplicates collapse)", s.Len())
	}
	want := []string{"a", "b", "c"}
	if got := s.Members(); !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}
	if !New().IsEmpty() {
		t.Error("New() should be empty")
	}
	if s.IsEmpty() {
		t.Error("non-empty set reported empty")
	}
	if !s.Contains("b") || s.Contains("z") {
		t.Error("Contains mismatch")
	}
}

func TestSetOperandsUnchanged(t *testing.T) {
	a := New("1", "2")
	b := New("2", "3")
	a.Union(b)
	a.Difference(b)
	a.SymmetricDifference(b)
	if !a.Equal(New("1", "2")) || !b.Equal(New("2", "3")) {
		t.Error("set operations must not mutate their operands")
	}
}
