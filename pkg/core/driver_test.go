package core

import (
	"errors"
	"testing"
	"time"
)

func TestBounds_Center(t *testing.T) {
	tests := []struct {
		bounds    Bounds
		expectedX int
		expectedY int
	}{
		{Bounds{X: 0, Y: 0, Width: 100, Height: 100}, 50, 50},
		{Bounds{X: 10, Y: 20, Width: 100, Height: 200}, 60, 120},
		{Bounds{X: 0, Y: 0, Width: 0, Height: 0}, 0, 0},
	}

	for _, tt := range tests {
		x, y := tt.bounds.Center()
		if x != tt.expectedX || y != tt.expectedY {
			t.Errorf("Bounds%+v.Center() = (%d, %d), want (%d, %d)",
				tt.bounds, x, y, tt.expectedX, tt.expectedY)
		}
	}
}

func TestBounds_Contains(t *testing.T) {
	bounds := Bounds{X: 10, Y: 10, Width: 100, Height: 100}

	tests := []struct {
		x, y     int
		expected bool
	}{
		{50, 50, true},    // Center
		{10, 10, true},    // Top-left corner
		{109, 109, true},  // Just inside bottom-right
		{110, 110, false}, // Exactly at boundary (exclusive)
		{0, 0, false},     // Outside
		{200, 200, false}, // Far outside
	}

	for _, tt := range tests {
		if got := bounds.Contains(tt.x, tt.y); got != tt.expected {
			t.Errorf("Bounds.Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestSucceeded(t *testing.T) {
	start := time.Now().Add(-50 * time.Millisecond)
	r := Succeeded(start, "Clicked #compare-btn")

	if !r.Success {
		t.Error("Success should be true")
	}
	if r.Error != nil {
		t.Errorf("Error = %v, want nil", r.Error)
	}
	if r.Duration < 50*time.Millisecond {
		t.Errorf("Duration = %v, want >= 50ms", r.Duration)
	}
	if r.Message != "Clicked #compare-btn" {
		t.Errorf("Message = %q", r.Message)
	}
}

func TestFailed(t *testing.T) {
	start := time.Now()
	err := ErrElementNotFound.WithMessage(`no element for label "Search Description"`)

	r := Failed(start, err, "")
	if r.Success {
		t.Error("Success should be false")
	}
	if !errors.Is(r.Error, ErrElementNotFound) {
		t.Errorf("Error = %v, want element_not_found", r.Error)
	}
	if r.Message != err.Error() {
		t.Errorf("Message = %q, want error text", r.Message)
	}

	r = Failed(start, err, "custom")
	if r.Message != "custom" {
		t.Errorf("Message = %q, want custom", r.Message)
	}
}
