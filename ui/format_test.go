package ui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{
			name:  "short text stays on one line",
			text:  "hello there",
			width: 20,
			want:  []string{"hello there"},
		},
		{
			name:  "breaks at the last space before the limit",
			text:  "bring the spare propane tank",
			width: 20,
			want:  []string{"bring the spare", "propane tank"},
		},
		{
			name:  "unbroken run splits at the limit",
			text:  "aaaaaaaaaabbbbb",
			width: 10,
			want:  []string{"aaaaaaaaaa", "bbbbb"},
		},
		{
			name:  "multibyte text counts runes not bytes",
			text:  "héllo wörld ällo wörld",
			width: 12,
			want:  []string{"héllo wörld", "ällo wörld"},
		},
		{
			name:  "empty text yields no lines",
			text:  "",
			width: 10,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap(tt.text, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("wrap = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
				if !utf8.ValidString(got[i]) {
					t.Errorf("line %d is not valid UTF-8: %q", i, got[i])
				}
				if n := utf8.RuneCountInString(got[i]); n > tt.width {
					t.Errorf("line %d is %d runes, limit %d", i, n, tt.width)
				}
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := pad("Liz", 10); got != "Liz       " {
		t.Errorf("pad short = %q", got)
	}
	if got := pad("a very long name", 10); got != "a very lon" {
		t.Errorf("pad truncated = %q", got)
	}

	// A multibyte name must truncate on a rune boundary and still come
	// out at the column width.
	got := pad("Núñez Ördoñez", 10)
	if !utf8.ValidString(got) {
		t.Errorf("pad produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("pad width = %d runes, want 10", n)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short", 15); got != "short" {
		t.Errorf("preview short = %q", got)
	}
	if got := preview("line one\nline two", 15); got != "line one line t..." {
		t.Errorf("preview flattened = %q", got)
	}

	got := preview("héllö wörld with ümlauts everywhere", 15)
	if !utf8.ValidString(got) {
		t.Errorf("preview produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preview = %q, want ... suffix", got)
	}
	if n := utf8.RuneCountInString(got); n != 18 {
		t.Errorf("preview width = %d runes, want 15 plus ellipsis", n)
	}
}

func TestShortName(t *testing.T) {
	if got := shortName("Liz"); got != "Liz" {
		t.Errorf("shortName short = %q", got)
	}
	if got := shortName("Don (iphone)"); got != "Don (iph.." {
		t.Errorf("shortName long = %q", got)
	}

	got := shortName("Ängström Ö. Nansen")
	if !utf8.ValidString(got) {
		t.Errorf("shortName produced invalid UTF-8: %q", got)
	}
	if got != "Ängström.." {
		t.Errorf("shortName multibyte = %q", got)
	}
}
