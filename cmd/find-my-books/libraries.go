// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/find-my-books/internal/catalog"
	"github.com/pdiddy/find-my-books/pkg/types"
)

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the libraries that will be searched",
	Long: `Libraries validates the library catalog and prints each definition with
its detection rule. Use --yaml to print the catalog in file form, for
example to start a custom catalog from the built-in one.`,
	Args: cobra.NoArgs,
	RunE: runLibraries,
}

func init() {
	librariesCmd.Flags().String("libraries", "", "library catalog file, YAML or JSON (default: built-in catalog)")
	librariesCmd.Flags().Bool("yaml", false, "print the catalog as a YAML catalog file")

	rootCmd.AddCommand(librariesCmd)
}

func runLibraries(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("libraries")
	if path == "" {
		path = viper.GetString("libraries")
	}
	libs, err := loadCatalog(path)
	if err != nil {
		return err
	}

	asYAML, _ := cmd.Flags().GetBool("yaml")
	if asYAML {
		data, err := catalog.Marshal(libs)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	formatLibraries(libs, os.Stdout)
	return nil
}

func formatLibraries(libs []types.LibraryDefinition, w io.Writer) {
	fmt.Fprintf(w, "%-25s  %-32s  %s\n", "Name", "Rule", "URL template")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, l := range libs {
		name := l.Name
		if len(name) > 25 {
			name = name[:22] + "..."
		}
		rule := l.Rule.String()
		if len(rule) > 32 {
			rule = rule[:29] + "..."
		}
		fmt.Fprintf(w, "%-25s  %-32s  %s\n", name, rule, l.URLTemplate)
	}
	fmt.Fprintf(w, "\n%d libraries\n", len(libs))
}
