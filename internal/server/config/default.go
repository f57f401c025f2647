// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr    = "127.0.0.1:5080"
	DefaultHTTPSAddr   = "127.0.0.1:5443"
	DefaultRaftAddr    = "127.0.0.1:5300"
	DefaultGossipAddr  = "127.0.0.1"
	DefaultGossipPort  = 5301
	DefaultLocalSocket = "/var/run/streamcoordd/streamcoordd.sock"

	DefaultRegistryDir = "/var/lib/streamcoordd/registry"
	DefaultRaftDataDir = "/var/lib/streamcoordd/raft"

	DefaultTickInterval    = 60 * time.Second
	DefaultElectionTimeout = 10 * time.Second
	DefaultRestartTimeout  = 1 * time.Second

	DefaultStartupLockName = "coordinator_startup"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
			Local: LocalConfig{
				Path: DefaultLocalSocket,
			},
		},
		Storage: StorageSection{
			DataDir: DefaultRegistryDir,
		},
		Cluster: ClusterSection{
			RaftAddr:        DefaultRaftAddr,
			GossipAddr:      DefaultGossipAddr,
			GossipPort:      DefaultGossipPort,
			DataDir:         DefaultRaftDataDir,
			StartupLockName: DefaultStartupLockName,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
