// Command climatecat inspects categorizations for climate policy data and
// the conversions between them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/primap-community/climate-categories/pkg/categories"
)

var (
	// Global flags
	verbose bool
	dataDir string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "climatecat",
	Short: "Inspect climate policy categorizations and conversions",
	Long: `climatecat works with hierarchical and flat categorizations used for
climate policy data (emissions inventories, reduction targets, scenarios)
and with the conversion rules that translate data between them.

Categorization definitions ship embedded in the binary; point --data at a
directory of definition files to work with your own.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if dataDir == "" {
			dataDir = os.Getenv("CLIMATE_CATEGORIES_DATA")
		}
		if dataDir != "" {
			categories.SetDataDir(dataDir)
			logger.Debug("Using definition directory", zap.String("dir", dataDir))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory with categorization definitions (default: embedded, or $CLIMATE_CATEGORIES_DATA)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(conversionCmd)
	rootCmd.AddCommand(cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
