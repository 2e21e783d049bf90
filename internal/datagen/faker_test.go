//-------------------------------------------------------------------------
//
// martload
//
// Copyright (c) 2025 - 2026, Edgemart Labs
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerNames(t *testing.T) {
	f := NewFaker()
	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
	if f.LastName() == "" {
		t.Error("LastName returned empty string")
	}
	if f.Company() == "" {
		t.Error("Company returned empty string")
	}
}

func TestFakerEmail(t *testing.T) {
	f := NewFaker()
	email := f.Email()
	if len(email) < 5 {
		t.Errorf("Email too short: %q", email)
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(10, 20)
		if v < 10 || v > 20 {
			t.Fatalf("Int(10, 20) out of range: %d", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 9.5)
		if v < 1.5 || v > 9.5 {
			t.Fatalf("Float64(1.5, 9.5) out of range: %f", v)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Fatalf("DateRange out of range: %v", d)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v := Choose(f, items)
		seen[v] = true
	}
	for _, item := range items {
		if !seen[item] {
			t.Errorf("Choose never returned %q in 100 draws", item)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	if v := Choose(f, []string{}); v != "" {
		t.Errorf("Choose on empty slice should return zero value, got %q", v)
	}
}

func TestProgressReporter(t *testing.T) {
	p := NewProgressReporter("test_table", 100, 10)
	p.Update(50)
	p.Update(50)
	p.Done()
	if p.currentRow != 100 {
		t.Errorf("Expected currentRow 100, got %d", p.currentRow)
	}
}
