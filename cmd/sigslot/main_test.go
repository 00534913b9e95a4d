package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := (&app{}).rootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDemo(t *testing.T) {
	cfg := writeFile(t, "sigslot.toml", `
[logging]
level = "error"

[throttle]
window = "5ms"

[timer]
interval = "20ms"
`)

	out, err := execute(t, "demo", "--config", cfg)
	if err != nil {
		t.Fatalf("demo failed: %v", err)
	}

	for _, want := range []string{
		"connection name: 'integer property for tests.value_changing'",
		"The property 'integer property for tests' changed to: 150",
		"<<<negative numbers are not allowed! The change was cancelled by a slot!>>>",
		"comparing int_prop == dummy (expecting: false): false",
		"now comparing int_prop == dummy (expecting: true): true",
		"<<<empty strings are not allowed! The change was cancelled by a slot!>>>",
		"str_prop = Hello World!",
		"throttle: throttled signal emitted...; THROTTLED",
		"threaded 1: 1",
		"threaded 2: 2",
		"...timer duration changed to 200ms",
		`JSON property: "This is the real JSON property..."`,
		`JSON property: "This is the parsed JSON property..."`,
		"Extended signal was emitted!",
		"/broadcast/channel is created...",
		"signal name: key_down; value: smart signal...",
		"SUPER SIGNAL NAME: super signal 3; value: super signal value!",
		"exiting...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if n := strings.Count(out, "timer: My timer"); n != 5 {
		t.Errorf("expected 5 timer ticks, got %d", n)
	}
	if n := strings.Count(out, "throttle: "); n != 20 {
		t.Errorf("expected 20 throttled deliveries, got %d", n)
	}
	if n := strings.Count(out, "hello..."); n != 4 {
		t.Errorf("expected broadcast to reach 4 printing slots, got %d", n)
	}
}

func TestRun(t *testing.T) {
	script := writeFile(t, "hooks.lua", `
signals.connect("saved", function(name, v)
	print(name, v.path)
end)
signals.connect("plain", function(name, v)
	print(name, v)
end)
`)

	out, err := execute(t, "run", script, "--emit", `saved={"path":"a.txt"}`, "--emit", "plain=hello")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "saved\ta.txt\nplain\thello\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_Errors(t *testing.T) {
	script := writeFile(t, "ok.lua", `x = 1`)

	if _, err := execute(t, "run", script, "--emit", "novalue"); err == nil {
		t.Error("expected error for --emit without '='")
	}
	if _, err := execute(t, "run", script, "--watch"); err == nil {
		t.Error("expected error for --watch without --config")
	}
	if _, err := execute(t, "run", writeFile(t, "bad.lua", `this is not lua`)); err == nil {
		t.Error("expected error for invalid script")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := execute(t, "demo", "--log-level", "loud"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("expected %q, got %q", version, out)
	}
}

func TestParseEmitValue(t *testing.T) {
	if v := parseEmitValue("hello"); v != "hello" {
		t.Errorf("expected string, got %#v", v)
	}
	if v := parseEmitValue("42"); v != float64(42) {
		t.Errorf("expected 42, got %#v", v)
	}
	m, ok := parseEmitValue(`{"a":true}`).(map[string]any)
	if !ok || m["a"] != true {
		t.Errorf("expected object, got %#v", m)
	}
}
