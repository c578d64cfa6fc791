package hotkey

import "testing"

func TestParseFKey(t *testing.T) {
	tests := []struct {
		accel   string
		want    int
		wantErr bool
	}{
		{"F11", 11, false},
		{"F12", 12, false},
		{"f1", 1, false},
		{" F20 ", 20, false},
		{"F0", 0, true},
		{"F21", 0, true},
		{"Alt+Space", 0, true},
		{"", 0, true},
		{"Fx", 0, true},
	}

	for _, tt := range tests {
		got, err := parseFKey(tt.accel)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseFKey(%q): expected error", tt.accel)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFKey(%q): unexpected error %v", tt.accel, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFKey(%q) = %d, want %d", tt.accel, got, tt.want)
		}
	}
}
