// Package cli implements the quarry command line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driven/config/file"
	"github.com/quarry-labs/quarry/internal/adapters/driven/encoder/onnx"
	"github.com/quarry-labs/quarry/internal/adapters/driven/encoder/scripted"
	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/postgres"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/core/services"
	"github.com/quarry-labs/quarry/internal/logger"
)

// version is the CLI version, overridable at build time.
var version = "0.1.0"

var (
	cfgFile     string
	verboseFlag bool
)

// Wired in initServices; tests inject mocks directly.
var (
	cfg   file.Config
	store *postgres.Store

	queryService   driving.QueryService
	embedService   driving.EmbedService
	reindexService driving.ReindexService
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Local-model vector retrieval over a pgvector corpus",
	Long: `Quarry embeds ingested text chunks with a local ONNX bi-encoder,
answers questions through approximate nearest neighbour search on
pgvector, and keeps the ivfflat index tuned as the corpus grows.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(*cobra.Command, []string) {
		if store != nil {
			store.Close()
			store = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.quarry/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads the config and wires the service graph for
// commands that need the database. Already-wired services are left
// alone so tests can inject mocks.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}
	if queryService != nil {
		return nil
	}

	var err error
	cfg, err = file.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("no database configured: set database.url in the config file or QUARRY_DATABASE_URL")
	}

	store, err = postgres.NewStore(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	var factory driven.EncoderFactory = onnx.NewFactory(cfg.Encoder.CacheDir, cfg.Encoder.OnnxLibrary)
	if cfg.Encoder.ModelID == "scripted" {
		// Offline smoke mode: deterministic vectors, no model assets.
		factory = scripted.NewFactory(cfg.Encoder.Dim)
	}
	sink := progressSink{}

	queryService = services.NewQueryService(store.CandidateStore(), store.IndexAdmin(), factory)
	embedService = services.NewEmbedService(store.EmbeddingStore(), factory, sink)
	reindexService = services.NewReindexService(store.EmbeddingStore(), store.IndexAdmin(), sink)

	return nil
}

// encoderConfig merges per-command model flags over the config file.
func encoderConfig(modelID, filename, device string) (domain.EncoderConfig, error) {
	if modelID == "" {
		modelID = cfg.Encoder.ModelID
	}
	if filename == "" {
		filename = cfg.Encoder.Filename
	}
	if device == "" {
		device = cfg.Encoder.Device
	}
	if device == "" {
		device = string(domain.DeviceCPU)
	}

	dev, err := domain.ParseDevice(device)
	if err != nil {
		return domain.EncoderConfig{}, err
	}
	return domain.EncoderConfig{ModelID: modelID, ModelFilename: filename, Device: dev}, nil
}

// progressSink routes service progress notes to stderr. Plans and
// results are printed by the commands from the returned values, so the
// structured sink methods stay quiet.
type progressSink struct{}

func (progressSink) Plan(string, any) error   { return nil }
func (progressSink) Result(string, any) error { return nil }

func (progressSink) Info(op, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", op, message)
}

// printJSON renders v as indented JSON on the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
