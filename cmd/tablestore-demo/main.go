// Command tablestore-demo boots a metastore.Store, seeds it with a sample
// table and entity, and blocks until SIGINT/SIGTERM for a graceful Close.
//
// It does not speak any wire protocol — out of scope per spec.md §1 — so
// there's nothing listening on Config.Host/Config.Port. It exists to
// demonstrate the ambient stack (config, logging, lifecycle) the way the
// teacher's own main.go/server.Init did, operating directly on the
// metastore.Store Go API instead of accepting TCP connections.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meteordb/tablestore/internal/config"
	"github.com/meteordb/tablestore/internal/logger"
	"github.com/meteordb/tablestore/internal/metastore"
)

func main() {
	config.LoadConfig()
	slog.SetDefault(logger.New())

	store, err := metastore.NewStore(config.Config.DataDir)
	if err != nil {
		slog.Error("failed to open metadata store", "error", err)
		os.Exit(1)
	}

	store.StartAutosave(time.Duration(config.Config.SnapshotInterval)*time.Second, func(err error) {
		slog.Error("autosave failed", "error", err)
	})

	if err := seedSampleData(store); err != nil {
		slog.Error("failed to seed sample data", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleShutdown(cancel)

	slog.Info("tablestore-demo running", "dataDir", config.Config.DataDir)
	<-ctx.Done()

	slog.Info("shutting down")
	if err := store.Close(); err != nil {
		slog.Error("failed to close metadata store", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func seedSampleData(store *metastore.Store) error {
	const account = "demoaccount"
	const table = "SampleTable"

	if _, err := store.CreateTable(account, table); err != nil {
		if errors.Is(err, metastore.ErrTableAlreadyExists) {
			return nil
		}
		return err
	}

	props := metastore.NewOrderedProperties()
	props.Set("Greeting", metastore.PropertyValue{Value: "hello"})
	entity := &metastore.EntityRecord{PartitionKey: "demo", RowKey: "1", Properties: props}

	_, err := store.InsertTableEntity(account, table, entity, "")
	return err
}

func handleShutdown(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("received shutdown signal")
	cancel()
}
