package circular

import (
	"errors"
	"slices"
	"testing"
)

func TestPushAndAppendTo(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		pushes   [][]int
		expected []int
	}{
		{"Empty", 3, nil, nil},
		{"Partial", 4, [][]int{{1, 2}}, []int{1, 2}},
		{"Exactly full", 3, [][]int{{1, 2, 3}}, []int{1, 2, 3}},
		{"Wraps one at a time", 3, [][]int{{1}, {2}, {3}, {4}, {5}}, []int{3, 4, 5}},
		{"Oversized push keeps tail", 3, [][]int{{1, 2, 3, 4, 5, 6}}, []int{4, 5, 6}},
		{"Mixed pushes", 4, [][]int{{1, 2, 3}, {4, 5}}, []int{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New[int](tt.size)
			for _, p := range tt.pushes {
				b.Push(p...)
			}

			got := b.AppendTo(nil)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("AppendTo() = %v, want %v", got, tt.expected)
			}
			if b.Len() != len(tt.expected) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.expected))
			}
		})
	}
}

func TestAt(t *testing.T) {
	b := New[string](2)
	b.Push("a", "b", "c")

	if v, ok := b.At(0); !ok || v != "b" {
		t.Errorf("At(0) = %q, %v, want \"b\", true", v, ok)
	}
	if v, ok := b.At(1); !ok || v != "c" {
		t.Errorf("At(1) = %q, %v, want \"c\", true", v, ok)
	}
	if _, ok := b.At(2); ok {
		t.Error("At(2) should be out of range")
	}
	if _, ok := b.At(-1); ok {
		t.Error("At(-1) should be out of range")
	}
}

func TestReset(t *testing.T) {
	b := New[float64](4)
	b.Push(1, 2, 3)
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", b.Len())
	}
	b.Push(9)
	if got := b.AppendTo(nil); !slices.Equal(got, []float64{9}) {
		t.Errorf("AppendTo() after Reset = %v, want [9]", got)
	}
}

func TestRetrieve(t *testing.T) {
	b := New[int](3)
	b.Push(1, 2, 3, 4)

	buf := make([]int, 3)
	if err := b.Retrieve(buf); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !slices.Equal(buf, []int{2, 3, 4}) {
		t.Errorf("Retrieve() = %v, want [2 3 4]", buf)
	}

	if err := b.Retrieve(make([]int, 2)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Retrieve() with short buffer error = %v, want ErrSizeMismatch", err)
	}
}

func TestNewClampsSize(t *testing.T) {
	if got := New[int](0).Cap(); got != 1 {
		t.Errorf("Cap() = %d, want 1", got)
	}
}

func BenchmarkPush(b *testing.B) {
	buf := New[float64](32)
	b.ReportAllocs()
	for b.Loop() {
		buf.Push(1.5)
	}
}
