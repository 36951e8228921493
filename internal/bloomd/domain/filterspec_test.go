package domain

import (
	"errors"
	"testing"
)

func TestParseFilterSpec_Valid(t *testing.T) {
	tests := []struct {
		line string
		want FilterSpec
	}{
		{"8 1", FilterSpec{Size: 8, Hashes: []uint64{1}}},
		{"256 1 2", FilterSpec{Size: 256, Hashes: []uint64{1, 2}}},
		{"  1024   3 3 ", FilterSpec{Size: 1024, Hashes: []uint64{3, 3}}},
	}
	for _, tt := range tests {
		got, err := ParseFilterSpec(tt.line)
		if err != nil {
			t.Errorf("ParseFilterSpec(%q): unexpected error: %v", tt.line, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseFilterSpec(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseFilterSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"zero size", "0 1"},
		{"negative hash", "256 -1"},
		{"zero hash", "256 0"},
		{"no hashes", "256"},
		{"empty", ""},
		{"non numeric size", "big 1"},
		{"non numeric hash", "8 one"},
		{"negative size", "-8 1"},
		{"float", "8.5 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilterSpec(tt.line)
			if !errors.Is(err, ErrConfig) {
				t.Errorf("ParseFilterSpec(%q): expected ErrConfig, got %v", tt.line, err)
			}
		})
	}
}

func TestFilterSpec_Equal(t *testing.T) {
	a := FilterSpec{Size: 8, Hashes: []uint64{1, 2}}
	if !a.Equal(FilterSpec{Size: 8, Hashes: []uint64{1, 2}}) {
		t.Error("identical specs should be equal")
	}
	if a.Equal(FilterSpec{Size: 8, Hashes: []uint64{2, 1}}) {
		t.Error("hash order is significant")
	}
	if a.Equal(FilterSpec{Size: 16, Hashes: []uint64{1, 2}}) {
		t.Error("different sizes should not be equal")
	}
	if a.Equal(FilterSpec{Size: 8, Hashes: []uint64{1}}) {
		t.Error("different hash counts should not be equal")
	}
}

func TestFilterSpec_StringRoundTrip(t *testing.T) {
	spec := FilterSpec{Size: 4096, Hashes: []uint64{1, 5, 5}}
	if got := spec.String(); got != "4096 1 5 5" {
		t.Fatalf("String() = %q", got)
	}
	back, err := ParseFilterSpec(spec.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(spec) {
		t.Errorf("round trip mismatch: %+v != %+v", back, spec)
	}
}
