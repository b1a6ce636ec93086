package crypto

import "testing"

func TestNormalizeCPF(t *testing.T) {
	if got := NormalizeCPF("123.456.789-09"); got != "12345678909" {
		t.Fatalf("expected digits only, got %q", got)
	}
	if got := NormalizeCPF("12345678909"); got != "12345678909" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestFormatCPF(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12345678909", "123.456.789-09"},
		{"123.456.789-09", "123.456.789-09"},
		{"123456789", ""},
		{"", ""},
		{"123.456.789-091", ""},
	}
	for _, c := range cases {
		if got := FormatCPF(c.in); got != c.want {
			t.Fatalf("FormatCPF(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestValidCPF(t *testing.T) {
	if !ValidCPF("123.456.789-09") || !ValidCPF("12345678909") {
		t.Fatal("both accepted forms should validate")
	}
	if ValidCPF("123") || ValidCPF("") {
		t.Fatal("short inputs must not validate")
	}
}
