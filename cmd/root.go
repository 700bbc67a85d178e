package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Manu343726/clamp-config/pkg/clamp"
	"github.com/Manu343726/clamp-config/pkg/config"
	"github.com/Manu343726/clamp-config/pkg/logging"
	"github.com/Manu343726/clamp-config/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var configErr error

// RootCmd represents the clamp-config command
var RootCmd = &cobra.Command{
	Use:   "clamp-config [options]",
	Short: "Print the flags needed to build C++AMP programs with clamp",
	Long: `clamp-config prints the compiler flags, linker flags or install prefix of a
clamp C++AMP toolchain, ready to be embedded in build scripts:

  clang++ $(clamp-config --cxxflags) -c main.cpp
  clang++ main.o $(clamp-config --hsa --ldflags)

Options are processed in the order they are given, so mode options only affect
the flags printed after them:

` + clamp.Usage() + `
Paths default to the ones the tool was built with and can be overridden from
$CLAMP_CONFIG (or ~/.clamp-config.yaml) and CLAMP_* environment variables.`,
	Args: cobra.ArbitraryArgs,
	// Options are scanned in order by clamp.Scanner, cobra must not reorder or reject them
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               run,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", RootCmd.Name(), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfgFile = os.Getenv("CLAMP_CONFIG")

	var searchPaths []string
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, home)
	}

	configErr = config.Init(viper.GetViper(), cfgFile, searchPaths...)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())

	logger, closeLog, logErr := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: cmd.ErrOrStderr(),
	})
	defer closeLog()

	for _, e := range []error{configErr, err, logErr} {
		if e != nil {
			logger.Warn("using partial configuration", "error", e)
		}
	}
	if used := viper.ConfigFileUsed(); used != "" && configErr == nil {
		logger.Debug("using config file", "path", used)
	}

	stdout := bufio.NewWriter(cmd.OutOrStdout())

	composer := clamp.NewComposer(cfg.Paths, stdout, logger)
	scanner := clamp.NewScanner(cmd.Root().Name(), stdout, cmd.ErrOrStderr(), logger)

	err = scanner.Run(composer, args)

	if flushErr := stdout.Flush(); err == nil && flushErr != nil {
		err = utils.MakeError(clamp.ErrOutput, "%v", flushErr)
	}

	return err
}
