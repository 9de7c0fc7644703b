package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestRunProcessesAllRecordsInOrderViaOrderedWriter(t *testing.T) {
	const n = 50
	idx := 0
	next := func() (Record, bool, error) {
		if idx >= n {
			return Record{}, false, nil
		}
		r := Record{Index: idx, Name: fmt.Sprintf("seq%d", idx)}
		idx++
		return r, true, nil
	}

	fn := func(_ context.Context, rec Record) (any, error) {
		return rec.Index * 2, nil
	}

	var mu sync.Mutex
	var ordered []int
	ow := NewOrderedWriter(func(res Result) error {
		mu.Lock()
		defer mu.Unlock()
		ordered = append(ordered, res.Index)
		return nil
	})

	err := Run(context.Background(), next, fn, ow.Push, Params{Workers: 4})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(ordered) != n {
		t.Fatalf("got %d results, want %d", len(ordered), n)
	}
	if !sort.IntsAreSorted(ordered) {
		t.Errorf("OrderedWriter did not preserve order: %v", ordered)
	}
	for i, v := range ordered {
		if v != i {
			t.Fatalf("ordered[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestRunCarriesPerRecordErrorsWithoutStoppingPipeline(t *testing.T) {
	const n = 10
	idx := 0
	next := func() (Record, bool, error) {
		if idx >= n {
			return Record{}, false, nil
		}
		r := Record{Index: idx}
		idx++
		return r, true, nil
	}

	fn := func(_ context.Context, rec Record) (any, error) {
		if rec.Index == 3 {
			return nil, fmt.Errorf("boom at %d", rec.Index)
		}
		return rec.Index, nil
	}

	var mu sync.Mutex
	errCount := 0
	okCount := 0
	sink := func(res Result) error {
		mu.Lock()
		defer mu.Unlock()
		if res.Err != nil {
			errCount++
		} else {
			okCount++
		}
		return nil
	}

	if err := Run(context.Background(), next, fn, sink, Params{Workers: 2}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if errCount != 1 || okCount != n-1 {
		t.Errorf("errCount=%d okCount=%d, want 1/%d", errCount, okCount, n-1)
	}
}

func TestOrderedWriterBuffersOutOfOrderResults(t *testing.T) {
	var emitted []int
	ow := NewOrderedWriter(func(res Result) error {
		emitted = append(emitted, res.Index)
		return nil
	})

	if err := ow.Push(Result{Index: 2}); err != nil {
		t.Fatal(err)
	}
	if len(emitted) != 0 || ow.Pending() != 1 {
		t.Fatalf("expected result 2 held back, got emitted=%v pending=%d", emitted, ow.Pending())
	}

	if err := ow.Push(Result{Index: 1}); err != nil {
		t.Fatal(err)
	}
	if len(emitted) != 0 || ow.Pending() != 2 {
		t.Fatalf("expected result 1 also held back, got emitted=%v pending=%d", emitted, ow.Pending())
	}

	if err := ow.Push(Result{Index: 0}); err != nil {
		t.Fatal(err)
	}
	if len(emitted) != 3 || emitted[0] != 0 || emitted[1] != 1 || emitted[2] != 2 {
		t.Fatalf("expected flush of 0,1,2 once 0 arrives, got %v", emitted)
	}
	if ow.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", ow.Pending())
	}
}
