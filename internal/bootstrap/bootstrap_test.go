package bootstrap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScan_FirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "a.json", `{"http":{}}`)
	second := writeConfig(t, dir, "b.json", `{"db":{}}`)

	result := Scan([]string{first, second})
	if result.Repo == nil {
		t.Fatalf("scan found nothing: %+v", result.Rejected)
	}
	if result.SelectedPath != first {
		t.Errorf("selected %s, want %s", result.SelectedPath, first)
	}
	if !result.Repo.Has("http") || result.Repo.Has("db") {
		t.Error("loaded the wrong file")
	}
	// The winner stops the scan.
	if len(result.Tried) != 1 {
		t.Errorf("tried %v, want just the first candidate", result.Tried)
	}
}

func TestScan_SkipsMissingAndRecordsRejections(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.json")
	insecure := writeConfig(t, dir, "insecure.json", `{}`)
	if err := os.Chmod(insecure, 0o644); err != nil {
		t.Fatal(err)
	}
	broken := writeConfig(t, dir, "broken.json", `not json`)
	good := writeConfig(t, dir, "good.json", `{"http":{}}`)

	result := Scan([]string{missing, insecure, broken, good})
	if result.SelectedPath != good {
		t.Fatalf("selected %q, rejected: %v", result.SelectedPath, result.Rejected)
	}
	if len(result.Tried) != 4 {
		t.Errorf("tried = %v", result.Tried)
	}
	if _, ok := result.Rejected[missing]; ok {
		t.Error("missing file recorded as rejected instead of just tried")
	}
	if _, ok := result.Rejected[insecure]; !ok {
		t.Error("insecure candidate has no rejection reason")
	}
	if _, ok := result.Rejected[broken]; !ok {
		t.Error("unparseable candidate has no rejection reason")
	}
}

func TestScan_ValidatesSections(t *testing.T) {
	dir := t.TempDir()
	// Structurally valid JSON, semantically broken trust section.
	bad := writeConfig(t, dir, "bad.json", `{"trust":{"web3":{"chain_id":0}}}`)

	result := Scan([]string{bad})
	if result.Repo != nil {
		t.Fatal("semantically invalid config accepted")
	}
	if reason := result.Rejected[bad]; !strings.Contains(reason, "chain_id") {
		t.Errorf("rejection reason %q does not name the failing key", reason)
	}

	// The same file passes when self-validation is off (test escape hatch).
	if r := Scan([]string{bad}, WithoutSelfValidation()); r.Repo == nil {
		t.Errorf("unvalidated scan still rejected: %v", r.Rejected)
	}
}

func TestLoad_AggregatesEveryReason(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.json")
	broken := writeConfig(t, dir, "broken.json", `{"oops"`)

	_, err := Load([]string{missing, broken})
	if err == nil {
		t.Fatal("Load succeeded with no usable candidate")
	}
	msg := err.Error()
	if !strings.Contains(msg, missing) || !strings.Contains(msg, "not present") {
		t.Errorf("error does not report the missing candidate: %s", msg)
	}
	if !strings.Contains(msg, broken) {
		t.Errorf("error does not report the broken candidate: %s", msg)
	}
}

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, dir, "runtime.json", `{"http":{"allowed_hosts":["example.org"]}}`)

	result, err := Load([]string{good})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Repo.SourcePath() != good {
		t.Errorf("source path = %q", result.Repo.SourcePath())
	}
}

func TestTryLoad(t *testing.T) {
	if repo := TryLoad([]string{filepath.Join(t.TempDir(), "none.json")}); repo != nil {
		t.Error("TryLoad invented a repository")
	}

	dir := t.TempDir()
	good := writeConfig(t, dir, "runtime.json", `{}`)
	if repo := TryLoad([]string{good}); repo == nil {
		t.Error("TryLoad missed a valid config")
	}
}

func TestLoadFile_RunsFullBattery(t *testing.T) {
	dir := t.TempDir()
	bad := writeConfig(t, dir, "bad.json", `{"db":{"port":99999}}`)

	if _, err := LoadFile(bad); err == nil {
		t.Error("out-of-range db.port accepted by LoadFile")
	}

	good := writeConfig(t, dir, "good.json", `{"db":{"port":5432}}`)
	repo, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := repo.Get("db.port", nil); got != float64(5432) {
		t.Errorf("db.port = %v", got)
	}
}

func TestDefaultCandidatePaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/op/.config")
	t.Setenv("HOME", "/home/op")

	paths := DefaultCandidatePaths()
	if len(paths) == 0 {
		t.Fatal("no candidate paths")
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("candidate %q is not absolute", p)
		}
	}
	// System locations come before user locations.
	var sysIdx, userIdx = -1, -1
	for i, p := range paths {
		if strings.HasPrefix(p, "/etc/") && sysIdx < 0 {
			sysIdx = i
		}
		if strings.Contains(p, "/.config/") && userIdx < 0 {
			userIdx = i
		}
	}
	if sysIdx < 0 || userIdx < 0 || sysIdx > userIdx {
		t.Errorf("candidate ordering wrong: %v", paths)
	}
}

func TestScanResult_Serializes(t *testing.T) {
	dir := t.TempDir()
	broken := writeConfig(t, dir, "broken.json", `nope`)

	result := Scan([]string{broken})
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("ScanResult does not serialize: %v", err)
	}
	if !strings.Contains(string(data), "rejected") {
		t.Errorf("serialized result lost rejections: %s", data)
	}
}
