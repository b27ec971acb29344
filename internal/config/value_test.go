package config

import (
	"errors"
	"testing"
)

func TestFromAnyRoundTrip(t *testing.T) {
	in := map[string]any{
		"s":    "text",
		"n":    float64(42),
		"b":    true,
		"null": nil,
		"arr":  []any{"a", float64(1)},
		"obj":  map[string]any{"inner": "x"},
	}
	v, err := FromAny(in)
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	if v.Kind() != KindObject {
		t.Fatalf("kind = %s, want object", v.Kind())
	}

	out, ok := v.ToAny().(map[string]any)
	if !ok {
		t.Fatal("ToAny did not return a map")
	}
	if out["s"] != "text" || out["n"] != float64(42) || out["b"] != true {
		t.Errorf("round trip mismatch: %v", out)
	}
	inner, _ := out["obj"].(map[string]any)
	if inner["inner"] != "x" {
		t.Errorf("nested round trip mismatch: %v", out["obj"])
	}
}

func TestFromAnyRejectsUnknownTypes(t *testing.T) {
	if _, err := FromAny(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("FromAny accepted a channel")
	}
}

func TestTypedAccessors(t *testing.T) {
	v, err := FromAny(map[string]any{"port": float64(8080), "host": "db", "frac": 1.5})
	if err != nil {
		t.Fatal(err)
	}

	port, _ := v.Member("port")
	n, err := port.AsInt()
	if err != nil || n != 8080 {
		t.Errorf("AsInt = %d, %v", n, err)
	}

	host, _ := v.Member("host")
	if _, err := host.AsInt(); !errors.Is(err, ErrWrongKind) {
		t.Errorf("AsInt on string: err = %v, want ErrWrongKind", err)
	}

	frac, _ := v.Member("frac")
	if _, err := frac.AsInt(); err == nil {
		t.Error("AsInt accepted non-integral number")
	}
	if f, err := frac.AsFloat(); err != nil || f != 1.5 {
		t.Errorf("AsFloat = %v, %v", f, err)
	}
}

func TestAtWalksNestedObjects(t *testing.T) {
	v, err := FromAny(map[string]any{
		"crypto": map[string]any{"agent": map[string]any{"socket_path": "/run/agent.sock"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, ok := v.At("crypto.agent.socket_path")
	if !ok {
		t.Fatal("At miss on existing key")
	}
	s, _ := got.AsString()
	if s != "/run/agent.sock" {
		t.Errorf("At = %q", s)
	}

	if _, ok := v.At("crypto.missing.deep"); ok {
		t.Error("At hit on missing key")
	}
	// Walking through a non-object stops, it does not panic or error.
	if _, ok := v.At("crypto.agent.socket_path.deeper"); ok {
		t.Error("At walked through a string")
	}
}
