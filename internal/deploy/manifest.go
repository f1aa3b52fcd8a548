// Package deploy reads the build/deploy document consumed by the external
// build system. The document is informational here: this process only echoes
// it through /status and treats the entrypoint as its own launch command.
// Build execution, artifact versioning, and publishing happen remotely.
package deploy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"modelkit/internal/common/fsutil"
	"modelkit/pkg/types"
)

// Manifest mirrors the deploy document's declared fields.
type Manifest struct {
	// Runtime version requirement, e.g. "python=3.6" or "go=1.23".
	Runtime string `yaml:"runtime"`
	// Optional accelerator requirement ("gpu" or "cpu").
	Accelerator string `yaml:"accelerator"`
	// Entrypoint command the build artifact launches.
	Entrypoint string `yaml:"entrypoint"`
	// Ordered build steps executed by the remote build system.
	Build []string `yaml:"build"`
}

// Load parses a deploy manifest from a YAML file.
func Load(path string) (Manifest, error) {
	var m Manifest
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return m, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// Summary converts the manifest into the wire shape used by /status.
func (m Manifest) Summary() *types.DeploySummary {
	return &types.DeploySummary{
		Runtime:     m.Runtime,
		Accelerator: m.Accelerator,
		Entrypoint:  m.Entrypoint,
		BuildSteps:  len(m.Build),
	}
}
