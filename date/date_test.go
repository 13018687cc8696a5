package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2025-7-1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := New(2025, 7, 1); got != want {
		t.Errorf("Parse() = %v want %v", got, want)
	}

	if _, err := Parse("not-a-date"); err == nil {
		t.Error("Parse() expected an error for an invalid date")
	}
}

func TestAdd_Normalizes(t *testing.T) {
	d := New(2025, 5, 31).Add(1)
	if want := New(2025, 6, 1); d != want {
		t.Errorf("Add(1) = %v want %v", d, want)
	}
	d = New(2025, 6, 1).Add(-1)
	if want := New(2025, 5, 31); d != want {
		t.Errorf("Add(-1) = %v want %v", d, want)
	}
}

func TestOf(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := Of(time.Date(2025, 6, 2, 23, 59, 0, 0, loc))
	if want := New(2025, 6, 2); got != want {
		t.Errorf("Of() = %v want %v", got, want)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2025, 6, 2)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(b) != `"2025-06-02"` {
		t.Errorf("MarshalJSON() = %s want %q", b, `"2025-06-02"`)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v want %v", back, d)
	}
}
