package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bodycomp/bodycomp/internal/config"
)

// GlobalFlags contains global flags available for all commands
type GlobalFlags struct {
	Config  string
	DataDir string
	Verbose bool
	JSON    bool
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bodycomp",
	Short: "Body composition tracking via the Withings API",
	Long: `bodycomp imports body-composition measurements (weight, fat mass,
muscle mass, bone mass, hydration) from the Withings API into a local
CSV store, merging repeated imports without duplicating records.

Typical workflow:

  bodycomp credentials --client-id ID --client-secret SECRET
  bodycomp auth
  bodycomp import

Use "bodycomp [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var globalFlags GlobalFlags

// InitRoot initializes the root command with global flags
func InitRoot() {
	RootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", config.DefaultConfigPath(), "Path to configuration file")
	RootCmd.PersistentFlags().StringVar(&globalFlags.DataDir, "data-dir", "", "Override data directory")
	RootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	RootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format")

	RootCmd.AddCommand(versionCmd)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() GlobalFlags {
	return globalFlags
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bodycomp",
	Run: func(cmd *cobra.Command, args []string) {
		info := GetVersionInfo()
		cmd.Println("bodycomp Version:", info.Version)
		cmd.Println("Go Version:", info.GoVersion)
		cmd.Println("OS/Arch:", info.OS+"/"+info.Arch)
	},
}

// VersionInfo contains version information
type VersionInfo struct {
	Version   string
	GoVersion string
	OS        string
	Arch      string
}

// GetVersionInfo returns version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
