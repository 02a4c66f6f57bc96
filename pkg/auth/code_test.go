package auth

import (
	"strings"
	"testing"
)

func TestNewConfirmationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		code, err := NewConfirmationCode()
		if err != nil {
			t.Fatalf("NewConfirmationCode: %v", err)
		}
		if len(code) != codeLength {
			t.Errorf("code length = %d, want %d", len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Errorf("code contains %q outside the alphabet", c)
			}
		}
		if seen[code] {
			t.Errorf("duplicate code generated: %s", code)
		}
		seen[code] = true
	}
}

func TestConfirmationCodeHashRoundtrip(t *testing.T) {
	code, err := NewConfirmationCode()
	if err != nil {
		t.Fatalf("NewConfirmationCode: %v", err)
	}
	hash, err := HashConfirmationCode(code)
	if err != nil {
		t.Fatalf("HashConfirmationCode: %v", err)
	}
	if hash == code {
		t.Error("hash equals the plaintext code")
	}

	if !CheckConfirmationCode(code, hash) {
		t.Error("correct code rejected")
	}
	if CheckConfirmationCode("wrong-code", hash) {
		t.Error("wrong code accepted")
	}
	if CheckConfirmationCode(code, "") {
		t.Error("empty hash accepted")
	}
}
