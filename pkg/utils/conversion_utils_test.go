package utils

import (
	"encoding/json"
	"testing"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    string
		wantErr bool
	}{
		{in: 5.99, want: "5.99"},
		{in: "12.50", want: "12.5"},
		{in: 3, want: "3"},
		{in: json.Number("0.1"), want: "0.1"},
		{in: "cheap", wantErr: true},
		{in: []int{1}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ToDecimal(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToDecimal(%v) expected error", tt.in)
			}
			continue
		}
		if err != nil || got.String() != tt.want {
			t.Errorf("ToDecimal(%v) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestStrToInt64(t *testing.T) {
	if n, err := StrToInt64("42"); err != nil || n != 42 {
		t.Fatalf("StrToInt64(42) = %d, %v", n, err)
	}
	if _, err := StrToInt64("4x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestToWholeNumber(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    int
		wantErr bool
	}{
		{in: "010", want: 10},
		{in: "08", want: 8},
		{in: " 12 ", want: 12},
		{in: float64(3), want: 3},
		{in: 9, want: 9},
		{in: "0x10", wantErr: true},
		{in: "2.5", wantErr: true},
		{in: 2.5, wantErr: true},
		{in: true, wantErr: true},
		{in: "99999999999", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ToWholeNumber(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToWholeNumber(%v) = %d, expected error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ToWholeNumber(%v) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestGetenvIntReadsDecimal(t *testing.T) {
	t.Setenv("EXPIRY_WARNING_DAYS", "010")
	if got := GetenvInt("EXPIRY_WARNING_DAYS", 30); got != 10 {
		t.Fatalf("GetenvInt = %d, want 10", got)
	}
	t.Setenv("EXPIRY_WARNING_DAYS", "soon")
	if got := GetenvInt("EXPIRY_WARNING_DAYS", 30); got != 30 {
		t.Fatalf("GetenvInt fallback = %d, want 30", got)
	}
}
