package deploy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "modelkit.yml")
	doc := "runtime: go=1.23\naccelerator: gpu\nentrypoint: modelkit serve\nbuild:\n  - go mod download\n  - go build ./cmd/modelkit\n"
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Runtime != "go=1.23" || m.Accelerator != "gpu" || m.Entrypoint != "modelkit serve" || len(m.Build) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	s := m.Summary()
	if s.BuildSteps != 2 || s.Entrypoint != "modelkit serve" {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	d := t.TempDir()
	p := filepath.Join(d, "bad.yml")
	if err := os.WriteFile(p, []byte("runtime: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("expected parse error")
	}
}
