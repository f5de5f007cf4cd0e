// Command rgwnode is the gateway daemon's entrypoint: flag/config parsing,
// backend selection, dialect/router wiring, and the signal-driven
// start/drain lifecycle - grounded on ais/daemon.go's cliFlags/daemonCtx/
// rungroup/Run() structure, collapsed to this core's single-process shape
// (no proxy/target role split).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NVIDIA/rgwcore/authn"
	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/backend/azureblob"
	"github.com/NVIDIA/rgwcore/backend/gcs"
	"github.com/NVIDIA/rgwcore/backend/hdfs"
	"github.com/NVIDIA/rgwcore/backend/localfs"
	"github.com/NVIDIA/rgwcore/backend/s3"
	"github.com/NVIDIA/rgwcore/config"
	"github.com/NVIDIA/rgwcore/pool"
	"github.com/NVIDIA/rgwcore/rgw"
	"github.com/NVIDIA/rgwcore/rgwlog"
	"github.com/NVIDIA/rgwcore/router"
)

// cliFlags mirrors ais/daemon.go's cliFlags grouping: one struct, one
// init() wiring each field to a flag.
type cliFlags struct {
	configPath string
	accountID  string
	storageURL string
}

var cli cliFlags

func init() {
	flag.StringVar(&cli.configPath, "config", "", "path to the gateway's JSON configuration file")
	flag.StringVar(&cli.accountID, "account", "default", "account id reported in S3 service-level listings")
	flag.StringVar(&cli.storageURL, "storage_url", "http://localhost:8080/swift/v1", "X-Storage-Url returned by the Swift auth endpoint")
}

func main() {
	flag.Parse()
	rgwlog.Init(os.Stderr)

	if cli.configPath != "" {
		if err := config.Load(cli.configPath); err != nil {
			rgwlog.Errorf("config load failed: %s", err)
			os.Exit(1)
		}
	}
	cfg := config.Get()

	provider, err := newProvider(cfg.Backend)
	if err != nil {
		rgwlog.Errorf("backend init failed: %s", err)
		os.Exit(1)
	}

	creds, err := authn.OpenCredStore(cfg.CredStorePath)
	if err != nil {
		rgwlog.Errorf("credential store init failed: %s", err)
		os.Exit(1)
	}
	defer creds.Close()

	tokens := authn.NewTokenIssuer([]byte(cfg.JWTSigningKey), 24*time.Hour)

	r := router.New()
	rgw.RegisterDefaultDialect(r, &rgw.S3Dialect{Creds: creds, AccountID: cli.accountID})
	rgw.RegisterDialect(r, "swift/v1", &rgw.SwiftDialect{Tokens: tokens, Creds: creds})
	r.Register("auth", &rgw.SwiftAuthHandler{Tokens: tokens, Creds: creds, StorageURL: cli.storageURL})

	dispatch := rgw.NewDispatcher(r, provider, nil)

	p := pool.New(
		cfg.ThreadPoolSize,
		cfg.ThreadPoolSize*4,
		time.Duration(cfg.SoftTimeoutSecs)*time.Second,
		time.Duration(cfg.HardTimeoutSecs)*time.Second,
	)

	errCh := make(chan error, 1)
	go func() {
		rgwlog.Infof("listening on %s", cfg.ListenAddr)
		errCh <- p.Serve(cfg.ListenAddr, pool.Dispatcher(dispatch))
	}()

	waitForShutdown(p, errCh)
}

// newProvider instantiates the configured backend.Provider - mirrors the
// per-role backend construction in ais/daemon.go's initDaemon, generalized
// to a type switch over the five adapters this core wires in.
func newProvider(bc config.BackendConfig) (backend.Provider, error) {
	switch bc.Type {
	case "", "localfs":
		return localfs.New(bc.Root)
	case "s3":
		return s3.New(s3.Config{
			Endpoint:        bc.Endpoint,
			Region:          bc.Region,
			AccessKeyID:     bc.AccessKeyID,
			SecretAccessKey: bc.SecretAccessKey,
			ForcePathStyle:  true,
		})
	case "azureblob":
		return azureblob.New(bc.AzureAccount, bc.AzureKey)
	case "gcs":
		return gcs.New(context.Background())
	case "hdfs":
		return hdfs.New(bc.HDFSNamenode, bc.Root)
	}
	return nil, fmt.Errorf("unknown backend type %q", bc.Type)
}

// waitForShutdown blocks on SIGTERM/SIGINT (graceful drain) or SIGHUP
// (config reload) until the pool's Serve goroutine exits on its own -
// mirrors rgw_main.cc's main() signal loop (SIGTERM/SIGHUP/SIGUSR1)
// without the Ceph-specific watchdog-alarm signals, which this core's
// pool.Pool implements as in-process timers instead.
func waitForShutdown(p *pool.Pool, errCh <-chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case err := <-errCh:
			if err != nil {
				rgwlog.Errorf("listener exited: %s", err)
			}
			p.Shutdown()
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				if cli.configPath != "" {
					rgwlog.Infof("reloading configuration from %s", cli.configPath)
					if err := config.Load(cli.configPath); err != nil {
						rgwlog.Errorf("config reload failed: %s", err)
					}
				}
			default:
				rgwlog.Infof("received %s, draining", sig)
				p.Shutdown()
				return
			}
		}
	}
}
