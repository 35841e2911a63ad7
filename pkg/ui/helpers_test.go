package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/techtree/pkg/model"
)

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{19400, "19,400"},
		{1234567, "1,234,567"},
		{-22600, "-22,600"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.in); got != tt.want {
			t.Errorf("formatThousands(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFee(t *testing.T) {
	if got := formatFee(nil); got != "-" {
		t.Errorf("formatFee(nil) = %q, want -", got)
	}
	if got := formatFee(model.IntPtr(22600)); got != "22,600원" {
		t.Errorf("formatFee(22600) = %q", got)
	}
}

func TestDetailLink(t *testing.T) {
	tests := []struct {
		site string
		want string
	}{
		{"http://localhost:3000", "http://localhost:3000/certifications/6"},
		{"http://localhost:3000/", "http://localhost:3000/certifications/6"},
		{"https://cert.example.kr/app", "https://cert.example.kr/app/certifications/6"},
	}
	for _, tt := range tests {
		if got := DetailLink(tt.site, 6); got != tt.want {
			t.Errorf("DetailLink(%q) = %q, want %q", tt.site, got, tt.want)
		}
	}
}

func TestTruncateRunesHelper_Hangul(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "전기기사", width: 8, want: "전기기사"},
		{name: "cut with suffix", in: "정보처리기술사", width: 7, want: "정보처…"},
		{name: "zero", in: "전기", width: 0, want: ""},
		{name: "ascii", in: "engineer", width: 5, want: "engi…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.in, tt.width, "…")
			if got != tt.want {
				t.Fatalf("truncateRunesHelper(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("invalid UTF-8: %q", got)
			}
			if w := runewidth.StringWidth(got); w > tt.width {
				t.Fatalf("width %d exceeds %d", w, tt.width)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("기사", 6); got != "기사  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("기술사", 4); got != "기술사" {
		t.Errorf("padRight should not cut: %q", got)
	}
}
