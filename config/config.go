// Package config loads gateway configuration from a JSON file merged over
// built-in defaults, holding the active config behind an atomically-swapped
// pointer so request-handling goroutines never race a reload. Grounded on
// cmn/config.go's globalConfigOwner pattern.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"os"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/rgwcore/compress"
)

// Config is the gateway's full runtime configuration.
type Config struct {
	ListenAddr      string        `json:"listen_addr"`
	ThreadPoolSize  int           `json:"thread_pool_size"`
	SoftTimeoutSecs int           `json:"soft_timeout_secs"`
	HardTimeoutSecs int           `json:"hard_timeout_secs"`
	MaxPutSize      int64         `json:"max_put_size"`
	MaxChunkSize    int64         `json:"max_chunk_size"`
	Backend         BackendConfig `json:"backend"`
	Compression     compress.Mode `json:"compression"`
	CredStorePath   string        `json:"credstore_path"`
	JWTSigningKey   string        `json:"jwt_signing_key"`
}

type BackendConfig struct {
	Type string `json:"type"` // "localfs" | "s3" | "azureblob" | "gcs" | "hdfs"
	Root string `json:"root"` // localfs root dir, or hdfs root path

	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`

	AzureAccount string `json:"azure_account"`
	AzureKey     string `json:"azure_key"`

	HDFSNamenode string `json:"hdfs_namenode"`
}

func defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		ThreadPoolSize:  64,
		SoftTimeoutSecs: 60,
		HardTimeoutSecs: 600,
		MaxPutSize:      5 << 30,  // 5 GiB, mirrors RGW_MAX_PUT_SIZE's order of magnitude
		MaxChunkSize:    4 << 20,  // mirrors RGW_MAX_CHUNK_SIZE
		Compression:     compress.Never,
		CredStorePath:   "rgwcore-creds.db",
		Backend:         BackendConfig{Type: "localfs", Root: "./data"},
	}
}

var active atomic.Pointer[Config]

func init() {
	d := defaults()
	active.Store(&d)
}

// Get returns the currently active configuration.
func Get() *Config { return active.Load() }

// Load reads a JSON config file from path, merges it over the defaults,
// and atomically installs it as the active config.
func Load(path string) error {
	cfg := defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(b, &cfg); err != nil {
		return err
	}
	active.Store(&cfg)
	return nil
}

// Set installs cfg directly, bypassing the file.
func Set(cfg Config) { active.Store(&cfg) }
