package audio

import "testing"

func TestQueuePreservesOrder(t *testing.T) {
	q := NewFrameQueue(8)
	for i := uint64(1); i <= 5; i++ {
		q.Push(Frame{Seq: i})
	}
	q.Close()

	var got []uint64
	for f := range q.Frames() {
		got = append(got, f.Seq)
	}

	if len(got) != 5 {
		t.Fatalf("received %d frames, want 5", len(got))
	}
	for i, seq := range got {
		if seq != uint64(i+1) {
			t.Errorf("frame %d has seq %d, want %d", i, seq, i+1)
		}
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewFrameQueue(3)
	for i := uint64(1); i <= 10; i++ {
		q.Push(Frame{Seq: i})
	}
	q.Close()

	var got []uint64
	for f := range q.Frames() {
		got = append(got, f.Seq)
	}

	// The three newest frames survive, still in order.
	want := []uint64{8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("received %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d has seq %d, want %d", i, got[i], want[i])
		}
	}

	if q.Dropped() != 7 {
		t.Errorf("Dropped = %d, want 7", q.Dropped())
	}
}

func TestQueuePushAfterCloseIsDiscarded(t *testing.T) {
	q := NewFrameQueue(2)
	q.Push(Frame{Seq: 1})
	q.Close()
	q.Push(Frame{Seq: 2}) // must not panic

	var got []uint64
	for f := range q.Frames() {
		got = append(got, f.Seq)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("frames after close = %v, want [1]", got)
	}
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	q := NewFrameQueue(1)
	q.Close()
	q.Close() // must not panic
}
