package forms

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		field string
		value string
		want  string
	}{
		{"id_number", "A123456789", "A12*****89"},
		{"national_id", "A123456789", "A12*****89"},
		{"phone", "0912345678", "0912***678"},
		{"email", "alice.wang@example.com", "ali***@example.com"},
		{"email", "al@example.com", "al***@example.com"},
		{"email", "not-an-email", "not-an-email"},
		// Too-short values pass through; masking them reveals the length.
		{"id_number", "A12", "A12"},
		{"phone", "12345", "12345"},
		// Unknown fields are not sensitive.
		{"address", "台北市大安區", "台北市大安區"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.value, func(t *testing.T) {
			if got := Mask(tt.field, tt.value); got != tt.want {
				t.Fatalf("Mask(%q, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
			}
		})
	}
}
