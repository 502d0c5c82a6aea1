package passcode

import "testing"

func TestNumericGenerate(t *testing.T) {
	t.Run("ProducesDecimalCodesOfTheConfiguredLength", func(t *testing.T) {
		// Arrange
		gen := NewNumeric(8)

		// Act
		code, err := gen.Generate()

		// Assert
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected only digits, got %q", code)
			}
		}
	})

	t.Run("FallsBackToSixDigits", func(t *testing.T) {
		// Arrange
		for _, digits := range []int{0, 3, 11, -1} {
			gen := NewNumeric(digits)

			// Act
			code, err := gen.Generate()

			// Assert
			if err != nil {
				t.Fatalf("generate failed for %d: %v", digits, err)
			}
			if gen.Digits() != 6 || len(code) != 6 {
				t.Fatalf("expected fallback to 6 digits for %d, got %q", digits, code)
			}
		}
	})

	t.Run("CodesVary", func(t *testing.T) {
		// Arrange
		gen := NewNumeric(6)

		// Act
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			seen[code] = true
		}

		// Assert
		if len(seen) < 2 {
			t.Fatalf("expected varying codes, every draw was identical")
		}
	})
}
