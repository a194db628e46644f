package extractor

import (
	"testing"
)

func TestTXT_Extract(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected string
		wantErr  bool
	}{
		{"simple", []byte("Hello world."), "Hello world.", false},
		{"multiline", []byte("First line.\nSecond line.\n"), "First line. Second line.", false},
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Hi")...), "Hi", false},
		{"unicode", []byte("Ünïcödé  text"), "Ünïcödé text", false},
		{"invalid utf8", []byte{0xff, 0xfe, 0x00, 0x41}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewTXT().Extract(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if text != nil {
					t.Errorf("expected no text on error, got %+v", text)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text.IsPaginated() {
				t.Error("txt should not be paginated")
			}
			if text.Text != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, text.Text)
			}
		})
	}
}
