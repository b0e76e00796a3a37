package locator

import "testing"

func TestValidateSelectors(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		wantErr bool
	}{
		{"defaults", DefaultSelectors, false},
		{"descendant", []string{"span.a-price span.a-offscreen"}, false},
		{"group", []string{"#price, .price"}, false},
		{"empty list", nil, true},
		{"unterminated attribute", []string{"#ok", "div[data-price"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelectors(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSelectors(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
