package common

import (
	"reflect"
	"sync"
	"testing"
)

func TestRingBuffer_Get(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if got := rb.Get(); len(got) != 0 {
		t.Errorf("empty buffer got %v", got)
	}
	rb.Add(1)
	rb.Add(2)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("got %v", got)
	}
	rb.Add(3)
	rb.Add(4)
	if got := rb.Get(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("got %v", got)
	}
	if rb.Len() != 3 {
		t.Errorf("len = %d", rb.Len())
	}
}

func TestRingBuffer_Last(t *testing.T) {
	rb := NewRingBuffer[int](3)
	if rb.Last() != 0 {
		t.Errorf("empty last = %d", rb.Last())
	}
	for i := 1; i <= 7; i++ {
		rb.Add(i)
		if rb.Last() != i {
			t.Errorf("last = %d, want %d", rb.Last(), i)
		}
	}
}

func TestRingBuffer_Concurrent(t *testing.T) {
	rb := NewRingBuffer[int](16)
	wg := new(sync.WaitGroup)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.Add(i*100 + j)
				_ = rb.Get()
			}
		}(i)
	}
	wg.Wait()
	if rb.Len() != 16 {
		t.Errorf("len = %d", rb.Len())
	}
}
