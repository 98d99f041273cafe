package doctor

import (
	"testing"
)

func TestParseMajorMinor(t *testing.T) {
	tests := []struct {
		name      string
		ver       string
		wantMajor int
		wantMinor int
		wantErr   bool
	}{
		{"simple", "1.51", 1, 51, false},
		{"with patch", "1.50.1", 1, 50, false},
		{"single number", "3", 0, 0, true},
		{"empty", "", 0, 0, true},
		{"bad major", "abc.11", 0, 0, true},
		{"bad minor", "3.xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			major, minor, err := parseMajorMinor(tt.ver)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMajorMinor(%q) = (%d,%d,nil); want error", tt.ver, major, minor)
				}

				return
			}

			if err != nil {
				t.Fatalf("parseMajorMinor(%q) error: %v", tt.ver, err)
			}

			if major != tt.wantMajor || minor != tt.wantMinor {
				t.Fatalf("parseMajorMinor(%q) = (%d,%d); want (%d,%d)",
					tt.ver, major, minor, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestCheckEspeakVersion(t *testing.T) {
	tests := []struct {
		name    string
		ver     string
		wantErr bool
	}{
		{"1.51 ok", "eSpeak NG text-to-speech: 1.51  Data at: /usr/share/espeak-ng-data", false},
		{"1.49.2 ok", "eSpeak NG text-to-speech: 1.49.2  Data at: /usr/lib/espeak-ng-data", false},
		{"dev build ok", "eSpeak NG text-to-speech: 1.52-dev  Data at: /opt/espeak-ng-data", false},
		{"too old", "eSpeak NG text-to-speech: 1.48.15  Data at: /usr/share/espeak-ng-data", true},
		{"classic espeak", "eSpeak text-to-speech: 1.48.03  04.Mar.14  Data at: /usr/share/espeak-data", true},
		{"garbage", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkEspeakVersion(tt.ver)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkEspeakVersion(%q) = %v; wantErr=%v", tt.ver, err, tt.wantErr)
			}
		})
	}
}
