package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/lintang-b-s/Segmentx/pkg/config"
	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/logger"
	"github.com/lintang-b-s/Segmentx/pkg/metrics"
	"go.uber.org/zap"
)

var (
	inputPath   = flag.String("input", "", "telemetry csv file (.csv or .csv.bz2)")
	outputDir   = flag.String("output", "", "directory for output.txt")
	configFile  = flag.String("config", "", "config file, defaults to ./data/config.* or ./config.*")
	metricsFile = flag.String("metrics", "", "write prometheus metrics to this textfile after the run")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "segmentx: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	log, err := logger.NewWithConfig(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		FilePath:    cfg.Log.FilePath,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		return err
	}
	defer log.Sync()
	log = log.With(zap.String("run_id", uuid.NewString()))

	stdin := bufio.NewReader(os.Stdin)
	input, err := flagOrPrompt(*inputPath, "Enter the input CSV file path: ", stdin, os.Stdout)
	if err != nil {
		return err
	}
	output, err := flagOrPrompt(*outputDir, "Enter the output directory: ", stdin, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	e, err := engine.NewEngineFromConfig(cfg, collector, log)
	if err != nil {
		return err
	}

	results, path, err := e.ProcessFile(ctx, input, output)
	if err != nil {
		log.Error("processing failed", zap.String("input", input), zap.Error(err))
		return err
	}
	for _, res := range results {
		fmt.Printf("Processing complete for %s. Results saved in %s\n", res.Report.Unit(), path)
	}

	textfile := cfg.Metrics.Textfile
	if *metricsFile != "" {
		textfile = *metricsFile
	}
	if textfile != "" {
		if err := collector.WriteTextfile(textfile); err != nil {
			log.Warn("write metrics textfile", zap.String("path", textfile), zap.Error(err))
		}
	}
	return nil
}

func flagOrPrompt(value, prompt string, in *bufio.Reader, out io.Writer) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %q: %w", strings.TrimSpace(prompt), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.TrimSuffix(strings.TrimSpace(prompt), ":"))
	}
	return line, nil
}
