package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/kinship/internal/logger"
	"github.com/cognicore/kinship/pkg/kinship/config"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	rules   string
	db      string
	verbose bool
	logJSON bool

	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "kinship",
		Short: "Answer questions about a family tree",
		Long: `kinship answers natural-language kinship questions such as
"Who is Thabo's father?" against a Mangle fact base.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (KINSHIP_*, e.g. KINSHIP_SERVER_ADDR)
3. Config file (--config or ~/.kinship/config.yaml)
4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initViper(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.kinship/config.yaml)")
	flags.StringVar(&a.rules, "rules", "", "Mangle rules file (fact_base.rules)")
	flags.StringVar(&a.db, "db", "", "SQLite fact database (fact_base.database)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&a.logJSON, "log-json", false, "JSON log output")

	root.AddCommand(
		newAskCmd(a),
		newServeCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newAuditCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// initViper layers defaults, the config file, KINSHIP_* variables and flags.
func (a *app) initViper(cmd *cobra.Command) error {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return internalerr.Wrapf(err, "read config %s", a.cfgFile)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".kinship"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !internalerr.As(err, &notFound) {
				return internalerr.Wrap(err, "read config")
			}
		}
	}

	// Path flags are relative to the working directory, not the config file.
	flags := cmd.Flags()
	if flags.Changed("rules") {
		abs, err := filepath.Abs(a.rules)
		if err != nil {
			return internalerr.Wrap(err, "rules path")
		}
		v.Set("fact_base.rules", abs)
	}
	if flags.Changed("db") {
		abs, err := filepath.Abs(a.db)
		if err != nil {
			return internalerr.Wrap(err, "db path")
		}
		v.Set("fact_base.database", abs)
	}
	if a.verbose {
		v.Set("log.level", "debug")
	}
	if err := v.BindPFlag("log.json", flags.Lookup("log-json")); err != nil {
		return internalerr.Wrap(err, "bind log-json")
	}

	a.v = v
	return nil
}

// config decodes and validates the merged configuration.
func (a *app) config() (config.Config, error) {
	return config.FromViper(a.v)
}

// logger builds a logger writing to the command's stderr.
func (a *app) logger(cmd *cobra.Command) (*zap.Logger, error) {
	return logger.NewWithWriter(cmd.ErrOrStderr(), a.v.GetString("log.level"), a.v.GetBool("log.json"))
}

// databasePath returns fact_base.database without requiring a rules file.
func (a *app) databasePath() (string, error) {
	p := a.v.GetString("fact_base.database")
	if p == "" {
		return "", internalerr.WithHint(
			internalerr.Wrap(internalerr.ErrInvalidConfig, "no fact database configured"),
			"pass --db or set fact_base.database")
	}
	if !filepath.IsAbs(p) {
		if used := a.v.ConfigFileUsed(); used != "" {
			p = filepath.Join(filepath.Dir(used), p)
		}
	}
	return p, nil
}
