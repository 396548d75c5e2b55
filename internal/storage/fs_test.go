package storage_test

import (
	"io"
	"strings"
	"testing"

	"github.com/keymark-edu/keymark/internal/storage"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	key, err := s.Put("answers/sess-1/page.png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "answers/sess-1/page.png" {
		t.Errorf("key = %q", key)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "pixels" {
		t.Errorf("body = %q", b)
	}
	u, err := s.SignedURL(key)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Errorf("url = %q", u)
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	for _, key := range []string{
		"../evil.txt",
		"../../etc/passwd",
		"a/../../evil.txt",
		"",
	} {
		if _, err := s.Put(key, strings.NewReader("x")); err == nil {
			t.Errorf("Put(%q) accepted a key outside the base", key)
		}
		if _, err := s.Get(key); err == nil {
			t.Errorf("Get(%q) accepted a key outside the base", key)
		}
	}
}
