package main

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "TYPESCHEMA"

// config is the merged view of flags, environment and typeschema.yaml.
type config struct {
	Catalogs       []string `mapstructure:"catalog"`
	Scan           []string `mapstructure:"scan"`
	Prefix         string   `mapstructure:"prefix"`
	FailureMarkers []string `mapstructure:"failure-marker"`
	Verbose        bool     `mapstructure:"verbose"`

	Output   string `mapstructure:"output"`
	Format   string `mapstructure:"format"`
	AllTypes bool   `mapstructure:"all-types"`
	Watch    bool   `mapstructure:"watch"`
}

// app carries the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "typeschema",
		Short: "Generate OpenAPI documents from type catalogs",
		Long: `typeschema resolves type descriptions into OpenAPI 3.0 schemas.

Types come from catalog files (YAML, JSON or TOML) and from Go source
directories. Catalog files may also declare endpoints, which become the
paths of the generated document.

Every flag can be set in typeschema.yaml or through a TYPESCHEMA_ variable:
  --catalog        TYPESCHEMA_CATALOG
  --failure-marker TYPESCHEMA_FAILURE_MARKER

Examples:
  typeschema generate -c api.yaml              # JSON document to stdout
  typeschema generate -c api.yaml -o api.yaml  # YAML document to a file
  typeschema generate --scan ./model --all-types
  typeschema validate -c api.yaml
  typeschema schema -c api.yaml 'App\Model\User|null'
  typeschema catalog-schema > catalog.schema.json`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: ./typeschema.yaml)")
	pf.StringSliceP("catalog", "c", nil, "catalog file (.yaml, .yml, .json, .toml), repeatable")
	pf.StringSlice("scan", nil, "Go package directory to scan for types, repeatable")
	pf.String("prefix", "", "name prefix for scanned Go types")
	pf.StringSlice("failure-marker", nil, "type names dropped from documented shapes (default: Throwable, Exception, error)")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.generateCmd(),
		a.validateCmd(),
		a.schemaCmd(),
		a.catalogSchemaCmd(),
	)

	return root
}

// init merges the configuration sources and sets up logging. Precedence,
// highest first: flags, environment, config file.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	explicit := a.v.GetString("config")
	if explicit != "" {
		a.v.SetConfigFile(explicit)
	} else {
		a.v.SetConfigName("typeschema")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return errors.Wrap(err, "decode config")
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.cfg.Verbose)
	if file := a.v.ConfigFileUsed(); file != "" {
		a.logger.Debug("config loaded", zap.String("file", file))
	}

	return nil
}

// newLogger writes human readable logs to w: warnings and errors only,
// or everything with verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""

	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	))
}
