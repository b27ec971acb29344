package secpath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mkdir(t *testing.T, parent, name string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(parent, name)
	if err := os.Mkdir(path, perm); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
	return path
}

func TestAssertSecureDir_Secrets(t *testing.T) {
	tests := []struct {
		name string
		perm os.FileMode
		ok   bool
	}{
		{"owner only", 0o700, true},
		{"group read-exec", 0o750, true},
		{"group write", 0o770, false},
		{"world read", 0o704, false},
		{"world exec", 0o701, false},
		{"world write", 0o702, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := mkdir(t, t.TempDir(), "keys", tt.perm)
			err := AssertSecureDir(dir, SecretsDir())
			if tt.ok && err != nil {
				t.Errorf("mode %04o rejected: %v", tt.perm, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("mode %04o accepted, want rejection", tt.perm)
			}
		})
	}
}

func TestAssertSecureDir_IntegrityRootAllowsWorldRead(t *testing.T) {
	dir := mkdir(t, t.TempDir(), "app", 0o755)
	if err := AssertSecureDir(dir, IntegrityRootDir()); err != nil {
		t.Fatalf("0755 integrity root rejected: %v", err)
	}

	if err := os.Chmod(dir, 0o757); err != nil {
		t.Fatal(err)
	}
	if err := AssertSecureDir(dir, IntegrityRootDir()); err == nil {
		t.Error("world-writable integrity root accepted")
	}
}

func TestAssertSecureDir_TxOutboxAllowsGroupWrite(t *testing.T) {
	dir := mkdir(t, t.TempDir(), "outbox", 0o770)
	if err := AssertSecureDir(dir, TxOutboxDir()); err != nil {
		t.Fatalf("group-writable outbox rejected: %v", err)
	}

	if err := os.Chmod(dir, 0o772); err != nil {
		t.Fatal(err)
	}
	if err := AssertSecureDir(dir, TxOutboxDir()); err == nil {
		t.Error("world-writable outbox accepted")
	}
}

func TestAssertSecureDir_Symlink(t *testing.T) {
	root := t.TempDir()
	real := mkdir(t, root, "real", 0o700)
	link := filepath.Join(root, "alias")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := AssertSecureDir(link, SecretsDir())
	var se *SecurityError
	if !errors.As(err, &se) {
		t.Fatalf("symlinked dir accepted, got %v", err)
	}
	if !strings.Contains(se.Reason, "symlink") {
		t.Errorf("reason = %q", se.Reason)
	}
}

func TestAssertSecureDir_NotADir(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f", 0o600)
	if err := AssertSecureDir(path, SecretsDir()); err == nil {
		t.Error("regular file accepted as directory")
	}
}

func TestAssertSecureDir_Missing(t *testing.T) {
	err := AssertSecureDir(filepath.Join(t.TempDir(), "nope"), SecretsDir())
	var se *SecurityError
	if !errors.As(err, &se) {
		t.Fatalf("want *SecurityError, got %v", err)
	}
	if !strings.Contains(se.Reason, "does not exist") {
		t.Errorf("reason = %q", se.Reason)
	}
}

func TestAssertSecureDir_OwnerEnforced(t *testing.T) {
	ins := NewFakeInspector(1000).
		AddDir("/", 0o755, 0).
		AddDir("/srv", 0o755, 0).
		AddDir("/srv/keys", 0o700, 1001)

	err := AssertSecureDir("/srv/keys", SecretsDir(), WithInspector(ins))
	if err == nil {
		t.Fatal("foreign-owned secrets dir accepted")
	}

	ins.AddDir("/srv/keys", 0o700, 1000)
	if err := AssertSecureDir("/srv/keys", SecretsDir(), WithInspector(ins)); err != nil {
		t.Errorf("self-owned secrets dir rejected: %v", err)
	}
}

func TestAncestors(t *testing.T) {
	got := ancestors("/a/b/c/file")
	want := []string{"/a/b/c", "/a/b", "/a", "/"}
	if len(got) != len(want) {
		t.Fatalf("ancestors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ancestors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
