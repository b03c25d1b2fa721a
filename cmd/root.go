// The cmd package implements the interface for the sdssdli CLI. The files in
// this package only handle CLI arguments and pass them to the controller in
// pkg/dli; each subcommand file wires one operation of the switch REST API.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdss/sdssdli/internal/format"
	ilog "github.com/sdss/sdssdli/internal/log"
	"github.com/sdss/sdssdli/pkg/dli"
)

// The `root` command doesn't do anything on its own except display
// a help message and then exits.
var rootCmd = &cobra.Command{
	Use:   "sdssdli",
	Short: "Digital Loggers power switch CLI",
	Long:  "Controls the outlets of a Digital Loggers switched PDU over its REST API.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			err := cmd.Help()
			if err != nil {
				log.Error().Err(err).Msg("failed to print help")
			}
			os.Exit(0)
		}
	},
}

// Execute runs the CLI from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitializeConfig, initLogger)

	rootCmd.PersistentFlags().StringP("name", "n", "", "Set the name of the controller (used for the secrets lookup)")
	rootCmd.PersistentFlags().String("host", "", "Set the address of the switch")
	rootCmd.PersistentFlags().Int("port", 80, "Set the port for the connection")
	rootCmd.PersistentFlags().StringP("user", "u", "admin", "Set the username for the switch")
	rootCmd.PersistentFlags().StringP("password", "p", "", "Set the password, or a path to a YAML secrets file")
	rootCmd.PersistentFlags().IntP("timeout", "t", 5, "Set the timeout for requests in seconds")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Set the config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Set to enable/disable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "Set to enable/disable debug messages")
	rootCmd.PersistentFlags().String("log-file", "", "Set a file to also write log messages to")

	// bind viper config flags with cobra
	checkBindFlagError(viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name")))
	checkBindFlagError(viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host")))
	checkBindFlagError(viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port")))
	checkBindFlagError(viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user")))
	checkBindFlagError(viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password")))
	checkBindFlagError(viper.BindEnv("password", "DLI_PASSWORD"))
	checkBindFlagError(viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout")))
	checkBindFlagError(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))
	checkBindFlagError(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))
	checkBindFlagError(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))
	checkBindFlagError(viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")))
}

func checkBindFlagError(err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to bind cobra/viper flag")
	}
}

// addFlag registers a command flag and binds it to the given viper key.
func addFlag(key string, cmd *cobra.Command, name string, shorthand string, value any, usage string) {
	switch v := value.(type) {
	case string:
		cmd.Flags().StringP(name, shorthand, v, usage)
	case bool:
		cmd.Flags().BoolP(name, shorthand, v, usage)
	case int:
		cmd.Flags().IntP(name, shorthand, v, usage)
	}
	checkBindFlagError(viper.BindPFlag(key, cmd.Flags().Lookup(name)))
}

// InitializeConfig initializes a new config object by loading it from a file
// given a non-empty string, or from the default config directory otherwise.
func InitializeConfig() {
	viper.AutomaticEnv()
	if viper.GetString("config") != "" {
		viper.SetConfigFile(viper.GetString("config"))
	} else {
		config_dir := os.Getenv("XDG_CONFIG_HOME")
		if config_dir == "" {
			config_dir = "$HOME/.config"
		}
		viper.AddConfigPath(config_dir + "/sdssdli")
		viper.SetConfigName("config")
		// File type left unspecified; Viper will auto-parse based on extension
		// e.g. ~/.config/sdssdli/config.yaml will parse as YAML
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Error().Err(err).Msg("failed to load config")
		}
	}
}

func initLogger() {
	level := "warn"
	if viper.GetBool("verbose") {
		level = "info"
	}
	if viper.GetBool("debug") {
		level = "debug"
	}
	if err := ilog.Init(level, viper.GetString("log-file")); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// newController builds a Controller from the current viper configuration.
func newController() (*dli.Controller, error) {
	host := viper.GetString("host")
	if host == "" {
		return nil, fmt.Errorf("no switch host set; use --host or the config file")
	}
	return dli.NewController(dli.Config{
		Name:     viper.GetString("name"),
		Host:     host,
		Port:     viper.GetInt("port"),
		User:     viper.GetString("user"),
		Password: viper.GetString("password"),
		Timeout:  time.Duration(viper.GetInt("timeout")) * time.Second,
	})
}

// parseOutletRefs maps positional arguments to outlet refs ("all", outlet
// numbers, or outlet names).
func parseOutletRefs(args []string) []dli.OutletRef {
	refs := make([]dli.OutletRef, 0, len(args))
	for _, arg := range args {
		refs = append(refs, dli.ParseOutletRef(arg))
	}
	return refs
}

// writeOutput prints data in the format bound to the given viper key, using
// the provided printer for the plain list format.
func writeOutput(cmd *cobra.Command, formatKey string, data any, list func(w io.Writer)) error {
	outFormat := format.DataFormat(viper.GetString(formatKey))
	if outFormat == format.FORMAT_LIST {
		list(cmd.OutOrStdout())
		return nil
	}
	b, err := format.Marshal(data, outFormat)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
	return nil
}
