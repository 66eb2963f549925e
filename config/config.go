/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads prsmith configuration from the environment, layered
// with an optional repo-local .prsmith.yaml.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// fileNames are the repo-local configuration files, in lookup order. These
// basenames are also the safety gate's forbidden change targets.
var fileNames = []string{".prsmith.yaml", ".prsmith.yml"}

// Config is the full tool configuration.
type Config struct {
	GitHubToken     string `env:"GITHUB_TOKEN,required" yaml:"-"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" yaml:"-"`

	Model string `env:"PRSMITH_MODEL" yaml:"model"`

	MaxFilesToChange          int  `env:"PRSMITH_MAX_FILES,default=10" yaml:"maxFilesToChange"`
	MaxLinesChanged           int  `env:"PRSMITH_MAX_LINES,default=1000" yaml:"maxLinesChanged"`
	RequireAcceptanceCriteria bool `env:"PRSMITH_REQUIRE_ACCEPTANCE_CRITERIA,default=false" yaml:"requireAcceptanceCriteria"`

	// ContextFileLimit caps how many repository files are offered to the
	// generator; ContextByteLimit caps the total bytes of their content.
	ContextFileLimit int `env:"PRSMITH_CONTEXT_FILES,default=20" yaml:"contextFileLimit"`
	ContextByteLimit int `env:"PRSMITH_CONTEXT_BYTES,default=262144" yaml:"contextByteLimit"`
}

// Load processes the environment and then overlays the repo-local config
// file when one exists under root. The file is applied after the
// environment, so repo-local settings win over environment defaults.
func Load(ctx context.Context, root string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	for _, name := range fileNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		break
	}

	return &cfg, nil
}
