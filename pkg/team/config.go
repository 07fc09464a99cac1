package team

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MemberConfig is one member entry in a team's config.json.
type MemberConfig struct {
	Name      string `json:"name"`
	AgentID   string `json:"agentId"`
	Status    string `json:"status"`
	Color     string `json:"color"`
	InboxPath string `json:"inboxPath"`
}

// TeamConfig is the persisted form of a team.
type TeamConfig struct {
	Name        string         `json:"name"`
	LeadAgentID string         `json:"leadAgentId"`
	Members     []MemberConfig `json:"members"`
}

// writeConfig rewrites a team's config.json atomically.
func writeConfig(dir string, cfg TeamConfig) error {
	if cfg.Members == nil {
		cfg.Members = []MemberConfig{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal team config: %w", err)
	}

	path := filepath.Join(dir, "config.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write team config: %w", err)
	}
	return os.Rename(tmp, path)
}

// readConfig loads a team's config.json.
func readConfig(dir string) (TeamConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return TeamConfig{}, fmt.Errorf("read team config: %w", err)
	}
	var cfg TeamConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return TeamConfig{}, fmt.Errorf("parse team config: %w", err)
	}
	return cfg, nil
}
