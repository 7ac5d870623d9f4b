package main

import (
	goflag "flag"
	"fmt"
	"os"
	"runtime"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STARE_LEVEL.
const EnvPrefix = "STARE"

// SubCommand pairs a cobra command with its own viper configuration.
type SubCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper

	EnvPrefix string
}

func newSubCommand(cmd *cobra.Command) *SubCommand {
	return &SubCommand{Cmd: cmd, EnvPrefix: EnvPrefix}
}

// newRootCmd builds the command tree. Each subcommand reads its flags, the
// persistent root flags, STARE_* environment variables and the optional
// config file through its own viper instance.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stare",
		Short: "STARE: hierarchical triangular spatial and temporal indexing",
		Long: `
stare encodes coordinates and instants into 64-bit spatial (SID) and temporal
(TIV) indices, covers polygons with multi-resolution trixel sets, dissolves and
intersects SID collections and renders trixels as GeoJSON.
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	root.PersistentFlags().Int("workers", runtime.NumCPU(), "Parallelism of batch operations.")
	root.PersistentFlags().String("format", "text", "Output format, one of [text, json].")

	rootConf := viper.New()
	_ = rootConf.BindPFlags(root.PersistentFlags())

	subcommands := []*SubCommand{
		encodeCmd(), decodeCmd(), coverCmd(), dissolveCmd(), intersectsCmd(),
		trixelsCmd(), tivCmd(), regionsCmd(),
	}
	for _, sc := range subcommands {
		root.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		_ = sc.Conf.BindPFlags(sc.Cmd.Flags())
		_ = sc.Conf.BindPFlags(root.PersistentFlags())
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
		sc.Conf.AutomaticEnv()
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return nil
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			if err := sc.Conf.ReadInConfig(); err != nil {
				return errors.Wrap(err, "reading config")
			}
		}
		glog.V(1).Infof("using config file %s", cfg)
		return nil
	}
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	root := newRootCmd()
	root.PersistentFlags().AddFlagSet(flag.CommandLine)
	_ = goflag.CommandLine.Parse([]string{})
	defer glog.Flush()

	if err := root.Execute(); err != nil {
		glog.Errorf("stare: %v", err)
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}
