package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	DeviceName     string          `json:"device_name"`
	DatabasePath   string          `json:"database_path"`
	ListenAddr     string          `json:"listen_addr"`
	PeerAddr       string          `json:"peer_addr"`
	PairingSecret  string          `json:"pairing_secret"`
	MinLogInterval *timex.Duration `json:"min_log_interval"`
	ProbeInterval  *timex.Duration `json:"probe_interval"`
	Premium        *bool           `json:"premium"`
}

// parseJson overlays cfg with values loaded from the JSON file at path.
// An empty path means no JSON is loaded. Fields absent from the file keep
// their current values, so the layering stays defaults -> JSON -> flags.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if jc.DeviceName != "" {
		cfg.DeviceName = jc.DeviceName
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ListenAddr != "" {
		cfg.ListenAddr = jc.ListenAddr
	}
	if jc.PeerAddr != "" {
		cfg.PeerAddr = jc.PeerAddr
	}
	if jc.PairingSecret != "" {
		cfg.PairingSecret = jc.PairingSecret
	}
	if jc.MinLogInterval != nil {
		cfg.MinLogInterval = time.Duration(jc.MinLogInterval.Duration)
	}
	if jc.ProbeInterval != nil {
		cfg.ProbeInterval = time.Duration(jc.ProbeInterval.Duration)
	}
	if jc.Premium != nil {
		cfg.Premium = *jc.Premium
	}
	return nil
}
