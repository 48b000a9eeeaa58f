// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the find-my-books CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the find-my-books CLI.
var rootCmd = &cobra.Command{
	Use:   "find-my-books",
	Short: "Find which libraries carry the e-books on your to-read shelf",
	Long: `find-my-books reads a Goodreads library export, keeps the books on the
to-read shelf, and searches a set of library websites for an e-book copy of
each one. The result is the export augmented with one column per library
holding the search URL where the book was found.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./find-my-books.yaml or ~/.config/find-my-books/find-my-books.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "display debug logging lines")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("find-my-books")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "find-my-books"))
		}
	}

	viper.SetEnvPrefix("FIND_MY_BOOKS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
