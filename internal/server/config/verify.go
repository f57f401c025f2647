// Package config defines the server configuration structure.
package config

import (
	"errors"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyCluster(&cfg.Cluster)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create registry data directory: " + err.Error())
	}
	return nil
}

func verifyCluster(cfg *ClusterSection) error {
	if cfg.RaftAddr == "" {
		return errors.New("cluster.raft_addr is required")
	}
	if cfg.DataDir == "" {
		return errors.New("cluster.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create raft data directory: " + err.Error())
	}
	return nil
}
