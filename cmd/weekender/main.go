// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the weekender CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lelandjfs/weekenders-app/internal/secrets"
	"github.com/lelandjfs/weekenders-app/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger writes structured logs to stderr; stdout is reserved for results.
var logger = log.New(os.Stderr)

// rootCmd is the base command for the weekender CLI.
var rootCmd = &cobra.Command{
	Use:   "weekender",
	Short: "Weekend recommendations for a city and date range",
	Long: `weekender finds things to do on a weekend: concerts, restaurants, events,
and places to visit around a given city. It fans out to ticketing, places,
and web search APIs concurrently, deduplicates what comes back, and prints
one ranked list per category.

API keys are read from .secrets/ (one file per key) or from environment
variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(log.DebugLevel)
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("secrets loaded", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./weekender.yaml or ~/.config/weekender/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("weekender")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "weekender"))
		}
	}

	viper.SetEnvPrefix("WEEKENDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("config loaded", "file", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the run configuration from viper (config file plus
// WEEKENDER_* environment variables) and fills defaults.
func loadConfig() types.Config {
	cfg := types.Config{
		HTTP: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		Classifier: types.ClassifierConfig{
			Model:      viper.GetString("classifier.model"),
			BaseURL:    viper.GetString("classifier.base_url"),
			MaxRetries: viper.GetInt("classifier.max_retries"),
			Timeout:    viper.GetDuration("classifier.timeout"),
		},
		Engine: types.EngineConfig{
			GlobalConcurrency: viper.GetInt("engine.global_concurrency"),
			TaskTimeout:       viper.GetDuration("engine.task_timeout"),
			MaxRetries:        viper.GetInt("engine.max_retries"),
			RetryBaseDelay:    viper.GetDuration("engine.retry_base_delay"),
		},
		Cache: types.CacheConfig{
			Dir: viper.GetString("cache.dir"),
			TTL: viper.GetDuration("cache.ttl"),
		},
		Synthesis: types.SynthesisConfig{
			FuzzyDistance:  viper.GetInt("synthesis.fuzzy_distance"),
			MaxPerCategory: viper.GetInt("synthesis.max_per_category"),
		},
		Deadline: viper.GetDuration("deadline"),
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = ".weekender-cache"
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = 2 * time.Minute
	}
	cfg.Defaults()
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
