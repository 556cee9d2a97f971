package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "livewall",
	Short:   "Livewall - live wallpaper marketplace backend",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("livewall %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// A missing .env is normal outside local development.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err == nil {
			log.Println("Loaded environment from .env")
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a production logger in release mode and a development logger otherwise.
func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
