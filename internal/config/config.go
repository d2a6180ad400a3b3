package config

import "time"

// Config holds runtime settings for the waterlog CLI and daemon.
//
// Fields:
//   - DeviceName: stable identifier for this replica, used in the pairing
//     handshake and in log lines.
//   - DatabasePath: path to the SQLite file holding the log store.
//   - ListenAddr: host:port this device accepts peer connections on.
//   - PeerAddr: host:port of the companion device.
//   - PairingSecret: shared secret both devices derive the pairing key from.
//   - MinLogInterval: minimum spacing between admitted drink entries.
//   - ProbeInterval: how often the transport probes peer reachability.
//   - Premium: whether this device unlocks the premium stats.
//
// Units: intervals are time.Duration (e.g., 3*time.Second).
type Config struct {
	DeviceName     string
	DatabasePath   string
	ListenAddr     string
	PeerAddr       string
	PairingSecret  string
	MinLogInterval time.Duration
	ProbeInterval  time.Duration
	Premium        bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DeviceName = "phone"
	c.DatabasePath = "waterlog.db"
	c.ListenAddr = "127.0.0.1:7475"
	c.PeerAddr = ""
	c.PairingSecret = ""
	c.MinLogInterval = 120 * time.Second
	c.ProbeInterval = 3 * time.Second
	c.Premium = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the JSON file at path (if non-empty). Command-line flags are layered
// on top by the CLI, so later sources take precedence over earlier ones.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
