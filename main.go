package main

import (
	"flag"
	"os"

	"github.com/leengari/parquery/internal/engine"
	"github.com/leengari/parquery/internal/logging"
	"github.com/leengari/parquery/internal/network"
)

func main() {
	port := flag.Int("port", 7433, "TCP port for the query server")
	budget := flag.Int64("budget-bytes", 0, "serialized response budget (0 = 16KiB default)")
	cacheSize := flag.Int("metadata-cache", 64, "cached table metadata snapshots")
	seqURL := flag.String("seq-url", "", "Seq ingestion endpoint (empty = console only)")
	flag.Parse()

	logger, closeFn := logging.SetupLogger(*seqURL)
	defer closeFn()

	logger.Info("Starting query server...")

	eng := engine.New(engine.Config{
		MetadataCacheSize: *cacheSize,
		BudgetBytes:       *budget,
	}, logger)

	if err := network.Start(*port, eng, logger); err != nil {
		logger.Error("server failed", "error", err)
		closeFn()
		os.Exit(1)
	}
}
