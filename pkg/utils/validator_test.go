package utils

import "testing"

func TestValidateComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		minLen  int
		wantErr bool
	}{
		{"long enough", "budget needs rework", 10, false},
		{"exactly at the floor", "1234567890", 10, false},
		{"too short", "too short", 10, true},
		{"whitespace does not count", "   abc    ", 10, true},
		{"empty", "", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComment(tt.comment, tt.minLen)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateComment(%q, %d) error = %v, wantErr %v",
					tt.comment, tt.minLen, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(0); err != nil {
		t.Errorf("ValidateAmount(0) = %v, want nil", err)
	}
	if err := ValidateAmount(99999.99); err != nil {
		t.Errorf("ValidateAmount(99999.99) = %v, want nil", err)
	}
	if err := ValidateAmount(-0.01); err == nil {
		t.Error("ValidateAmount(-0.01) = nil, want error")
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"line\nbreaks\tand\x00nulls", "linebreaksandnulls"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeString(tt.in); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
