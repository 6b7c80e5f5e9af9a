package dedupe

import (
	"fmt"
	"testing"
)

func TestRegistry_AdmitThenSuppress(t *testing.T) {
	r := NewRegistry(10)

	if !r.ShouldProcess("call-1") {
		t.Error("expected unseen call to be admitted")
	}
	// Unmarked: a second check still admits (mark happens after success).
	if !r.ShouldProcess("call-1") {
		t.Error("expected unmarked call to still be admitted")
	}

	r.MarkProcessed("call-1")
	if r.ShouldProcess("call-1") {
		t.Error("expected marked call to be suppressed")
	}
}

func TestRegistry_EmptyCallIDAlwaysAdmitted(t *testing.T) {
	r := NewRegistry(10)
	r.MarkProcessed("")

	if !r.ShouldProcess("") {
		t.Error("expected empty callID to always be admitted")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty callID not to be stored, got len %d", r.Len())
	}
}

func TestRegistry_MarkIdempotent(t *testing.T) {
	r := NewRegistry(10)
	r.MarkProcessed("call-1")
	r.MarkProcessed("call-1")

	if r.Len() != 1 {
		t.Errorf("expected 1 entry after repeated marks, got %d", r.Len())
	}
}

func TestRegistry_EvictsOldestAtCapacity(t *testing.T) {
	r := NewRegistry(3)
	for i := 1; i <= 3; i++ {
		r.MarkProcessed(fmt.Sprintf("call-%d", i))
	}
	r.MarkProcessed("call-4")

	if r.Len() != 3 {
		t.Errorf("expected capacity 3, got %d", r.Len())
	}
	if !r.ShouldProcess("call-1") {
		t.Error("expected oldest entry to have been evicted")
	}
	for i := 2; i <= 4; i++ {
		if r.ShouldProcess(fmt.Sprintf("call-%d", i)) {
			t.Errorf("expected call-%d to still be suppressed", i)
		}
	}
}

func TestNewRegistry_DefaultCapacity(t *testing.T) {
	r := NewRegistry(0)
	if r.cap != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, r.cap)
	}
	r = NewRegistry(-5)
	if r.cap != DefaultCapacity {
		t.Errorf("expected default capacity for negative input, got %d", r.cap)
	}
}
