package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	tok, ok := StaticProvider("abc").Token()
	if !ok || tok != "abc" {
		t.Errorf("Token() = %q, %v; want abc, true", tok, ok)
	}

	if _, ok := StaticProvider("").Token(); ok {
		t.Error("empty StaticProvider reported a token")
	}
	if StaticProvider("").LoggedIn() {
		t.Error("empty StaticProvider reported LoggedIn")
	}
}

func TestOpenFileStore_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if s.LoggedIn() {
		t.Error("empty store reported LoggedIn")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("opening created the file: %v", err)
	}
}

func TestOpenFileStore_EmptyPath(t *testing.T) {
	if _, err := OpenFileStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFileStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.yaml")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if err := s.SaveToken("tok-123"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := s.Put("user_id", "u-42"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	reloaded, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	tok, ok := reloaded.Token()
	if !ok || tok != "tok-123" {
		t.Errorf("Token() = %q, %v; want tok-123, true", tok, ok)
	}
	if v, _ := reloaded.Get("user_id"); v != "u-42" {
		t.Errorf("user_id = %q, want u-42", v)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_ClearToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	s, _ := OpenFileStore(path)

	if err := s.ClearToken(); err != nil {
		t.Errorf("ClearToken on empty store: %v", err)
	}
	if err := s.SaveToken("tok"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}
	if s.LoggedIn() {
		t.Error("still LoggedIn after ClearToken")
	}

	reloaded, _ := OpenFileStore(path)
	if reloaded.LoggedIn() {
		t.Error("cleared token came back after reload")
	}
}

func TestFileStore_SaveEmptyToken(t *testing.T) {
	s, _ := OpenFileStore(filepath.Join(t.TempDir(), "creds.yaml"))
	if err := s.SaveToken(""); err != ErrNoToken {
		t.Errorf("SaveToken(\"\") = %v, want ErrNoToken", err)
	}
}

func TestOpenFileStore_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.yaml")
	if err := os.WriteFile(path, []byte("access_token: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := OpenFileStore(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse token file") {
		t.Errorf("error = %v, want parse token file", err)
	}
}

func TestChain(t *testing.T) {
	chain := Chain{StaticProvider(""), nil, StaticProvider("second"), StaticProvider("third")}

	tok, ok := chain.Token()
	if !ok || tok != "second" {
		t.Errorf("Token() = %q, %v; want second, true", tok, ok)
	}
	if !chain.LoggedIn() {
		t.Error("LoggedIn() = false")
	}
	if (Chain{}).LoggedIn() {
		t.Error("empty chain reported LoggedIn")
	}
}
