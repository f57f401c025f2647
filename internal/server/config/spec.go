// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for streamcoordd.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Cluster ClusterSection `koanf:"cluster"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Path string `koanf:"path"`
}

// StorageSection configures the durable topology registry.
type StorageSection struct {
	DataDir       string `koanf:"data_dir"`
	EncryptionKey string `koanf:"encryption_key"`
}

// ClusterSection configures the coordinator's own Raft/gossip behavior.
type ClusterSection struct {
	NodeID    string   `koanf:"node_id"`
	RaftAddr  string   `koanf:"raft_addr"`
	GossipAddr string  `koanf:"gossip_addr"`
	GossipPort int      `koanf:"gossip_port"`
	Bootstrap bool     `koanf:"bootstrap"`
	Seeds     []string `koanf:"seeds"`
	DataDir   string   `koanf:"data_dir"`

	// TickIntervalMS is the membership reconciliation tick.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// ElectionTimeoutMS is passed to cluster.Config.ElectionTimeout. The
	// cluster package does not read it: check_quorum has no timeout.
	ElectionTimeoutMS int `koanf:"election_timeout_ms"`

	// RestartTimeoutMS is passed to cluster.Config.RestartTimeout. The
	// cluster package does not read it: start_replica retries use no
	// back-off derived from it.
	RestartTimeoutMS int `koanf:"restart_timeout_ms"`

	// StartupLockName is the registry key used to arbitrate which node
	// bootstraps a fresh Raft cluster.
	StartupLockName string `koanf:"startup_lock_name"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// tickInterval converts TickIntervalMS to a time.Duration, applying the
// package default when unset.
func (c ClusterSection) tickInterval() time.Duration {
	if c.TickIntervalMS <= 0 {
		return DefaultTickInterval
	}
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c ClusterSection) electionTimeout() time.Duration {
	if c.ElectionTimeoutMS <= 0 {
		return DefaultElectionTimeout
	}
	return time.Duration(c.ElectionTimeoutMS) * time.Millisecond
}

func (c ClusterSection) restartTimeout() time.Duration {
	if c.RestartTimeoutMS <= 0 {
		return DefaultRestartTimeout
	}
	return time.Duration(c.RestartTimeoutMS) * time.Millisecond
}
