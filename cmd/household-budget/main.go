package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/household-budget/internal/budget"
	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/internal/logging"
	"github.com/iwvelando/household-budget/internal/store"
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/format"
	"github.com/iwvelando/household-budget/pkg/output"
	"github.com/iwvelando/household-budget/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	inputLocation := flag.String("input", "", "path to a saved household record to compute instead of the configured households")
	saveLocation := flag.String("save", "", "path to save the first computed household as a record")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation, *inputLocation != "")
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	var reports []budget.Report
	if *inputLocation != "" {
		reports, err = loadRecord(*inputLocation, conf)
		if err != nil {
			logger.Fatal("failed to load household record",
				zap.String("op", "main"),
				zap.String("path", *inputLocation),
				zap.Error(err),
			)
		}
	} else {
		for _, warning := range conf.ValidateConfiguration() {
			logger.Warn("Configuration warning: "+warning,
				zap.String("op", "main"),
			)
		}

		reports, err = budget.Evaluate(logger, *conf)
		if err != nil {
			logger.Fatal("failed to compute households",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	if len(reports) == 0 {
		logger.Warn("no active households to compute",
			zap.String("op", "main"),
		)
		return
	}

	if *saveLocation != "" {
		if err := store.SaveFile(*saveLocation, reports[0].Name, reports[0].Input); err != nil {
			logger.Fatal("failed to save household record",
				zap.String("op", "main"),
				zap.String("path", *saveLocation),
				zap.Error(err),
			)
		}
		logger.Info("saved household record",
			zap.String("op", "main"),
			zap.String("household", reports[0].Name),
			zap.String("path", *saveLocation),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, reports, format.New(conf.Output.Locale))
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, reports)
	case constants.OutputFormatJSON:
		err = output.JSONFormat(os.Stdout, reports)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// loadConfiguration reads the config file. When a saved record is computed
// the file only supplies the profile and may be absent.
func loadConfiguration(path string, optional bool) (*config.Configuration, error) {
	if optional {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.LoadConfiguration(path)
}

func loadRecord(path string, conf *config.Configuration) ([]budget.Report, error) {
	profile, err := conf.Profile.EngineProfile()
	if err != nil {
		return nil, err
	}

	rec, in, err := store.LoadFile(path, profile)
	if err != nil {
		return nil, err
	}
	label := rec.Label
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return []budget.Report{budget.NewReport(label, in)}, nil
}
