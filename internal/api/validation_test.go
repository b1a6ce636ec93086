package api

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateEmailRegex(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"a+b@b.com.br", true},
		{"", false},
		{"   ", false},
		{"a@", false},
		{"@b.com", false},
		{"a@b", false},
		{"a b@c.com", false},
	}
	for _, c := range cases {
		err := ValidateEmailRegex(c.in)
		if (err == nil) != c.want {
			t.Fatalf("email=%q wantOk=%v gotErr=%v", c.in, c.want, err)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(81) 99999-0000", "(81) 99999-0000"},
		{"81999990000", "(81) 99999-0000"},
		{"(81) 3333-4444", "(81) 3333-4444"},
		{"8133334444", "(81) 3333-4444"},
		{"81 99999 0000", "(81) 99999-0000"},
	}
	for _, c := range cases {
		got, err := NormalizePhone(c.in)
		if err != nil || got != c.want {
			t.Fatalf("phone=%q got=%q err=%v want=%q", c.in, got, err, c.want)
		}
	}
	for _, bad := range []string{"", "123", "abc", "(81) 999-00"} {
		if _, err := NormalizePhone(bad); err == nil {
			t.Fatalf("phone=%q should be rejected", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	if got, err := ParseDate("1990-01-01"); err != nil || got != "1990-01-01" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	for _, bad := range []string{"", "01/01/1990", "1990-13-01", "1990-02-30", "now"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("date=%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`150`, 150},
		{`150.5`, 150.5},
		{`"1.234,56"`, 1234.56},
		{`"1234.56"`, 1234.56},
		{`"1,234.56"`, 1234.56},
		{`"10,5"`, 10.5},
		{`"R$ 300,00"`, 300},
		{`"1.234.567,89"`, 1234567.89},
	}
	for _, c := range cases {
		got, err := ParseMoney(json.RawMessage(c.in))
		if err != nil || got != c.want {
			t.Fatalf("money=%s got=%v err=%v want=%v", c.in, got, err, c.want)
		}
	}
}

func TestParseMoneyRejectsAbsent(t *testing.T) {
	// Ausência, null e string vazia são falha de validação, não zero.
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`""`), json.RawMessage(`"   "`)} {
		if _, err := ParseMoney(raw); !errors.Is(err, ErrValueRequired) {
			t.Fatalf("raw=%s expected ErrValueRequired, got %v", raw, err)
		}
	}
	for _, raw := range []json.RawMessage{json.RawMessage(`"abc"`), json.RawMessage(`"12,34,56"`), json.RawMessage(`[1]`)} {
		if _, err := ParseMoney(raw); !errors.Is(err, ErrValueInvalid) {
			t.Fatalf("raw=%s expected ErrValueInvalid, got %v", raw, err)
		}
	}
}

func TestValidWeight(t *testing.T) {
	for _, ok := range []string{"", "70", "70.5", "70.55"} {
		if !ValidWeight(ok) {
			t.Fatalf("weight=%q should be valid", ok)
		}
	}
	for _, bad := range []string{"70.555", "abc", "70,5", "-70"} {
		if ValidWeight(bad) {
			t.Fatalf("weight=%q should be invalid", bad)
		}
	}
}

func TestEnums(t *testing.T) {
	if !PaymentMethods["PIX"] || !PaymentMethods["Bank Slip"] {
		t.Fatal("known payment methods missing")
	}
	if PaymentMethods["Cheque"] {
		t.Fatal("unknown payment method accepted")
	}
	if !HabitFrequencies[""] || !HabitFrequencies["Daily"] {
		t.Fatal("known habit frequencies missing")
	}
	if HabitFrequencies["Sometimes"] {
		t.Fatal("unknown habit frequency accepted")
	}
}
