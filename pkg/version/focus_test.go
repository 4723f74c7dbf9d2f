package version

import (
	"testing"

	"github.com/matzehuels/wallyup/pkg/errors"
)

func TestParseFocus(t *testing.T) {
	tests := []struct {
		input   string
		want    Focus
		wantErr bool
	}{
		{"", FocusPatch, false},
		{"major", FocusMajor, false},
		{"minor", FocusMinor, false},
		{"patch", FocusPatch, false},
		{"MAJOR", FocusMajor, false},
		{"latest", "", true},
		{"prerelease", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFocus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFocus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFocus) {
				t.Errorf("ParseFocus(%q) code = %v", tt.input, errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("ParseFocus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFocusAdmits(t *testing.T) {
	base := MustParse("1.2.3")
	tests := []struct {
		focus     Focus
		candidate string
		want      bool
	}{
		{FocusPatch, "1.2.9", true},
		{FocusPatch, "1.3.0", false},
		{FocusPatch, "2.2.3", false},
		{FocusMinor, "1.9.0", true},
		{FocusMinor, "2.0.0", false},
		{FocusMajor, "7.0.0", true},
		{FocusMajor, "0.1.0", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.focus)+"_"+tt.candidate, func(t *testing.T) {
			if got := tt.focus.Admits(base, MustParse(tt.candidate)); got != tt.want {
				t.Errorf("%s.Admits(1.2.3, %s) = %v, want %v", tt.focus, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestFocusImproves(t *testing.T) {
	best := MustParse("1.2.3")
	tests := []struct {
		focus     Focus
		candidate string
		want      bool
	}{
		{FocusPatch, "1.2.4", true},
		{FocusPatch, "1.2.3", false},
		{FocusPatch, "1.2.2", false},
		{FocusMinor, "1.3.0", true},
		{FocusMinor, "1.2.4", true},
		{FocusMajor, "2.0.0", true},
		{FocusMajor, "1.1.9", false},
		{FocusMajor, "9.9.9-rc.1", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.focus)+"_"+tt.candidate, func(t *testing.T) {
			if got := tt.focus.Improves(best, MustParse(tt.candidate)); got != tt.want {
				t.Errorf("%s.Improves(1.2.3, %s) = %v, want %v", tt.focus, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestInvalidFocusAdmitsNothing(t *testing.T) {
	if Focus("huge").Admits(MustParse("1.0.0"), MustParse("1.0.1")) {
		t.Error("invalid focus admitted a candidate")
	}
}
