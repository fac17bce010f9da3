package textutil

import "testing"

func TestDecodeInputStripsUTF8BOMAndCRLF(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Title,Description\r\nLogin,As a user\r\n")...)
	got, err := DecodeInput(data)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	want := "Title,Description\nLogin,As a user\n"
	if got != want {
		t.Fatalf("DecodeInput = %q, want %q", got, want)
	}
}

func TestDecodeInputUTF16LE(t *testing.T) {
	// "Hi\n" in UTF-16LE with BOM.
	data := []byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00, '\n', 0x00}
	got, err := DecodeInput(data)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if got != "Hi\n" {
		t.Fatalf("DecodeInput = %q, want %q", got, "Hi\n")
	}
}

func TestDecodeInputNormalizesToNFC(t *testing.T) {
	// "e" followed by a combining acute accent.
	got, err := DecodeInput([]byte("cafe\u0301"))
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if got != "caf\u00e9" {
		t.Fatalf("expected composed form, got %q", got)
	}
}

func TestDecodeInputEmpty(t *testing.T) {
	got, err := DecodeInput(nil)
	if err != nil || got != "" {
		t.Fatalf("DecodeInput(nil) = %q, %v", got, err)
	}
}
