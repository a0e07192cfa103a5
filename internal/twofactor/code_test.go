package twofactor

import "testing"

func TestGenerateCode_ReturnsSixDigits(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code contains non-digit: %c", c)
		}
	}
}

func TestGenerateCode_Randomness(t *testing.T) {
	// Generate multiple codes and verify they're not all identical.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("50 generated codes were all identical")
	}
}

func TestHashCode_Consistent(t *testing.T) {
	if HashCode("123456") != HashCode("123456") {
		t.Error("HashCode not deterministic")
	}
	if len(HashCode("123456")) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(HashCode("123456")))
	}
}

func TestCodeEqual(t *testing.T) {
	stored := HashCode("123456")
	if !CodeEqual("123456", stored) {
		t.Error("CodeEqual should match correct code")
	}
	if CodeEqual("654321", stored) {
		t.Error("CodeEqual should reject wrong code")
	}
}
