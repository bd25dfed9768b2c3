package types

import (
	"testing"
	"time"
)

func TestConstants(t *testing.T) {
	// Verify MaxConcurrentTools is set to expected value
	if MaxConcurrentTools != 5 {
		t.Errorf("expected MaxConcurrentTools to be 5, got %d", MaxConcurrentTools)
	}

	// Verify DefaultToolTimeout is set to expected value
	if DefaultToolTimeout != 60*time.Second {
		t.Errorf("expected DefaultToolTimeout to be 60s, got %s", DefaultToolTimeout)
	}

	// Research gets a longer budget than ordinary tools
	if ResearchToolTimeout <= DefaultToolTimeout {
		t.Error("expected ResearchToolTimeout to be greater than DefaultToolTimeout")
	}
}

func TestMaxConcurrentTools_Reasonable(t *testing.T) {
	// The pool cap should allow some parallelism without unbounded fan-out
	if MaxConcurrentTools < 1 {
		t.Error("MaxConcurrentTools must allow at least one in-flight call")
	}
	if MaxConcurrentTools > 64 {
		t.Error("MaxConcurrentTools seems excessively large for a single process")
	}
}

func TestDefaultToolPriority_IsLowest(t *testing.T) {
	// Unknown tools sort after the explicitly prioritized ones (1 and 2)
	if DefaultToolPriority <= 2 {
		t.Error("DefaultToolPriority should sort after explicitly prioritized tools")
	}
}

func TestEventBufferSize_Reasonable(t *testing.T) {
	if EventBufferSize < 10 {
		t.Error("EventBufferSize seems too small to absorb event bursts")
	}
	if EventBufferSize > 10000 {
		t.Error("EventBufferSize seems excessively large")
	}
}
