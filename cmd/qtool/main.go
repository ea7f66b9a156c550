// qtool benchmarks the execution time of a fixed per-host CPU-usage
// aggregation query against a SQLite database, streaming query parameters
// from a CSV source through a pool of concurrent workers.
//
// Environment variables:
//
// QTOOL_DEBUG: a comma-separated list of name=val pairs enabling optional
// subsystems. pprof=PORT starts a net/http/pprof server on PORT;
// metrics=PORT starts a Prometheus /metrics server on PORT.
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/timescale/qtool"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var cli CliArgs
	cmd := buildCommand(&cli, func(cli *CliArgs) error {
		return runBenchmark(log, cli)
	})

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("qtool failed")
		os.Exit(1)
	}
}

func runBenchmark(log *logrus.Logger, cli *CliArgs) error {
	if debug.pprof > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", debug.pprof)
			log.Infof("pprof server listening on %s", addr)
			log.Fatal(http.ListenAndServe(addr, nil))
		}()
	}

	orch, err := qtool.NewOrchestrator(cli.Workers, log, os.Stdout)
	if err != nil {
		return fmt.Errorf("invalid worker count %d: %w", cli.Workers, err)
	}

	if debug.metrics > 0 {
		reg := prometheus.NewRegistry()
		collector := qtool.NewMetricsCollector(reg)
		orch.WithMetrics(collector)
		go func() {
			log.Infof("metrics server listening on :%d", debug.metrics)
			if err := qtool.Serve(debug.metrics, reg); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	paramsSrc, closeFn, err := openParamsSource(cli.ParamsFile)
	if err != nil {
		return fmt.Errorf("open params source: %w", err)
	}
	defer closeFn()

	reader := qtool.NewCSVRecordReader(paramsSrc)

	log.Infof("starting benchmark: db=%s workers=%d", cli.DBFile, cli.Workers)
	return orch.Run(context.Background(), cli.DBFile, reader)
}

// openParamsSource returns the params file at path, or os.Stdin when path
// is empty, along with a cleanup function.
func openParamsSource(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
