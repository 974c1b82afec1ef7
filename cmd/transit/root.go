package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	settings = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "transit",
	Short: "Transit derives execution configurations",
	Long: `Transit applies the execution transition to build configurations: it marks them
as execution configurations, retargets them to an execution platform and names
them with the distinguisher their options select.

Transition options follow "--", e.g.
  transit exec --platform //platform:exec -- --platforms=//platform:target`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initSettings(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "settings file (yaml, json or toml)")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("redis", "", "redis address shared by processes memoizing results")
	flags.Duration("redis-ttl", 0, "expiry of memoized results in redis (0 keeps them)")
	flags.String("store-dir", "", "directory memoizing results on disk")
	flags.Bool("read-only", false, "read memoized results without storing new ones")
}

// initSettings layers the settings file and TRANSIT_* environment variables
// under the flags of the running command.
func initSettings(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("TRANSIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
	}
	settings = v
	return nil
}
