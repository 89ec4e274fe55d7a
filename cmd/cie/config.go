// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk .cie/project.yaml configuration for one project.
type Config struct {
	ProjectID string `yaml:"project_id"`

	Store struct {
		// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
		Engine string `yaml:"engine"`
		// DataDir overrides the default ~/.cie/data/<project_id> location.
		DataDir string `yaml:"data_dir,omitempty"`
	} `yaml:"store"`

	Ingest struct {
		// ExcludePatterns is matched as a substring against each file's
		// full relative path.
		ExcludePatterns []string `yaml:"exclude_patterns,omitempty"`
		// IncludeGlobs, when non-empty, restricts ingestion to files
		// matching at least one of these globs.
		IncludeGlobs     []string `yaml:"include_globs,omitempty"`
		MaxFileSizeBytes int64    `yaml:"max_file_size_bytes,omitempty"`
		ParseWorkers     int      `yaml:"parse_workers,omitempty"`
	} `yaml:"ingest"`
}

// defaultExcludePatterns is the default exclude list written to
// project.yaml. The ingestion walk applies it in addition to
// ingest.DefaultExcludePatterns, which always apply and are not
// overridden by this list.
var defaultExcludePatterns = []string{
	"vendor/", "node_modules/", ".git/", "_generated.", "dist/", "build/",
}

// DefaultConfig returns a Config with the project ID set and every other
// field at its documented default.
func DefaultConfig(projectID string) *Config {
	cfg := &Config{ProjectID: projectID}
	cfg.Store.Engine = "rocksdb"
	cfg.Ingest.ExcludePatterns = append([]string(nil), defaultExcludePatterns...)
	cfg.Ingest.MaxFileSizeBytes = 2 << 20 // 2 MiB
	cfg.Ingest.ParseWorkers = 4
	return cfg
}

// ConfigDir returns the .cie directory for the project rooted at dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".cie")
}

// ConfigPath returns the project.yaml path for the project rooted at dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "project.yaml")
}

// LoadConfig reads and parses project.yaml. An empty path resolves to
// ConfigPath for the current working directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is either a CLI flag or the project's own .cie dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration found at %s (run 'cie init' first)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("config %s: project_id is required", path)
	}
	if cfg.Store.Engine == "" {
		cfg.Store.Engine = "rocksdb"
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec // G306: project.yaml is not sensitive
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ResolveDataDir resolves the CozoDB data directory for cfg: the explicit
// override if set, else ~/.cie/data/<project_id>.
func (c *Config) ResolveDataDir() (string, error) {
	if c.Store.DataDir != "" {
		return c.Store.DataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".cie", "data", c.ProjectID), nil
}
