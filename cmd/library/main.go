// Command library runs the library management console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/config"
	"github.com/jalpatel9108-creator/library-management-system/console"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
	"github.com/jalpatel9108-creator/library-management-system/session"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("library: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obs, err := newObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer obs.close()

	store, closeStore, err := openStore(ctx, cfg, obs)
	if err != nil {
		return err
	}
	defer closeStore()

	l, err := ledger.NewLedger(store, ledgerOptions(cfg, obs)...)
	if err != nil {
		return err
	}

	if cfg.ReconcileOnStart {
		corrected, reconcileErr := l.Reconcile(ctx)
		if reconcileErr != nil {
			return fmt.Errorf("reconciling book availability: %w", reconcileErr)
		}
		if len(corrected) > 0 {
			fmt.Printf("Repaired availability of %d book(s).\n", len(corrected))
		}
	}

	services := console.Services{
		Ledger:  l,
		Catalog: catalog.New(store, l, catalog.WithLogger(obs.logger)),
		Reports: reporting.New(store, l, reporting.WithLocation(cfg.Location)),
		Vault:   session.New(cfg.InDataDir(cfg.AdminConfig), session.WithLogger(obs.logger)),
		Store:   store,
	}

	consoleOptions := []console.Option{
		console.WithLogger(obs.logger),
		console.WithDataPath(cfg.InDataDir),
	}
	if reader, isTerminal := console.NewTerminalPasswordReader(int(os.Stdin.Fd())); isTerminal {
		consoleOptions = append(consoleOptions, console.WithPasswordReader(reader))
	}

	return console.New(os.Stdin, os.Stdout, services, consoleOptions...).Run(ctx)
}
