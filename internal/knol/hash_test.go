package knol

import "testing"

func TestNormalize(t *testing.T) {
	expected := "what is htmx?\na library for ajax."
	normalized := Normalize("  What is HTMX? \r\n", "A library for AJAX.")

	if normalized != expected {
		t.Errorf("Expected normalized string to be %q, but got %q", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// Hash for "q\na"
		expectedHash := "27d2d5c8276a1f606af38834a9294ae5d3bfc6c5097c03e3fdd6e8c5c37e2ba7"
		if hash := Hash("Q", "A"); hash != expectedHash {
			t.Errorf("Expected hash %q, but got %q", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		if Hash("  what is go? ", "A programming language.") != Hash("What Is Go?", "a programming language.") {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("field boundary matters", func(t *testing.T) {
		if Hash("ab", "c") == Hash("a", "bc") {
			t.Error("Expected hashes to differ when content moves between fields")
		}
	})
}

func TestSetAdd(t *testing.T) {
	seen := Set{}
	if !seen.Add("Front", "Back") {
		t.Fatal("Expected first Add to report a new fingerprint")
	}
	if seen.Add(" front ", "BACK") {
		t.Error("Expected normalized duplicate to be rejected")
	}
	if !seen.Add("Front", "Other") {
		t.Error("Expected different back to be new")
	}
	if len(seen) != 2 {
		t.Errorf("Expected 2 fingerprints, got %d", len(seen))
	}
}
