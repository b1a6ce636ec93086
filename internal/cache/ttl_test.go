package cache

import (
	"testing"
	"time"
)

func TestTTLSetGetExpire(t *testing.T) {
	c := New(30 * time.Millisecond)
	c.Set("a", []byte("1"))
	if got := c.Get("a"); string(got) != "1" {
		t.Fatalf("expected 1, got %q", got)
	}
	time.Sleep(40 * time.Millisecond)
	if got := c.Get("a"); got != nil {
		t.Fatalf("expected expired, got %q", got)
	}
}

func TestTTLDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("patients:list:20:0", []byte("x"))
	c.Set("patients:list:20:20", []byte("y"))
	c.Set("other", []byte("z"))
	c.DeletePrefix("patients:")
	if c.Get("patients:list:20:0") != nil || c.Get("patients:list:20:20") != nil {
		t.Fatal("prefix entries should be gone")
	}
	if c.Get("other") == nil {
		t.Fatal("unrelated entry should remain")
	}
}
