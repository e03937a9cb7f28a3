// Command ibsimd runs the TWS wire-protocol simulator gateway: it
// loads configuration, opens the store, binds the listener, and
// starts the synthetic market-data feed. Flag surface mirrors the
// original `_examples/original_source/ib_simulator/main.py` argparse
// entry point (--config, --env, --host, --port), built here with
// github.com/spf13/cobra per SPEC_FULL.md §10.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibsim/gateway/internal/config"
	"github.com/ibsim/gateway/internal/gateway"
	"github.com/ibsim/gateway/internal/logging"
	"github.com/ibsim/gateway/internal/marketfeed"
	"github.com/ibsim/gateway/internal/session"
	"github.com/ibsim/gateway/internal/store"
	"github.com/ibsim/gateway/internal/store/boltstore"
	"github.com/ibsim/gateway/internal/store/memstore"
)

func main() {
	var configPath, env, host string
	var port int

	root := &cobra.Command{
		Use:   "ibsimd",
		Short: "TWS wire-protocol simulator gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, env, host, port)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to config.yaml")
	root.Flags().StringVar(&env, "env", "", "named server.environments entry to apply (local, docker, network)")
	root.Flags().StringVar(&host, "host", "", "override server.host")
	root.Flags().IntVar(&port, "port", 0, "override server.port")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ibsimd:", err)
		os.Exit(1)
	}
}

func run(configPath, env, hostFlag string, portFlag int) error {
	log := logging.NewLogrus(logrus.StandardLogger())

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	host, port := cfg.Server.Host, cfg.Server.Port
	if env != "" {
		host, port = cfg.ResolveEnvironment(env)
	}
	if hostFlag != "" {
		host = hostFlag
	}
	if portFlag != 0 {
		port = portFlag
	}

	var seeds []store.AccountSeed
	for _, a := range cfg.Authentication.Accounts {
		seeds = append(seeds, store.AccountSeed{
			AccountID: a.AccountID, Username: a.Username, Password: a.Password,
			AccountType: a.AccountType, BaseCurrency: a.BaseCurrency, InitialBalance: a.InitialBalance,
		})
	}

	var st store.Store
	if cfg.Database.Path != "" {
		st, err = boltstore.Open(cfg.Database.Path, seeds, cfg.Market.Symbols)
	} else {
		st, err = memstore.New(seeds, cfg.Market.Symbols)
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	defaultAccount := ""
	if len(cfg.Authentication.Accounts) > 0 {
		defaultAccount = cfg.Authentication.Accounts[0].AccountID
	}

	reg := gateway.NewRegistry(cfg.Server.MaxClients, log)

	sessionCfg := session.Config{
		ServerVersion:           cfg.Protocol.Version,
		MessageRateLimit:        cfg.Protocol.MessageRateLimit,
		BufferSize:              cfg.Server.BufferSize,
		DefaultAccount:          defaultAccount,
		OrderStatusDelay:        100 * time.Millisecond,
		SyntheticHistoricalData: cfg.Protocol.SyntheticHistoricalData,
	}
	srv := session.NewServer(st, log, sessionCfg)

	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := gateway.Listen(addr, reg, log)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Log(logging.LevelInfo, "listening", "addr", addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := marketfeed.New(reg, log, cfg.Market.Symbols, tickInterval(cfg.Market.TickInterval), cfg.Market.SnapshotPath)
	go feed.Run(ctx)

	err = ln.Serve(ctx, srv.Handle)
	ln.Close()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func tickInterval(seconds float64) time.Duration {
	if seconds <= 0 {
		return time.Second
	}
	return time.Duration(seconds * float64(time.Second))
}
