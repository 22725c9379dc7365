// Command postmodel inspects and administers the databases configured for
// an application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/postmodel"
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/engine"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// cmdControl holds the flags common to every command.
type cmdControl struct {
	flagConfig   string
	flagURL      string
	flagDatabase string
	flagEnvFiles []string
	flagDebug    bool
	flagVerbose  bool

	// lookupEnv replaces os.LookupEnv in tests.
	lookupEnv func(string) (string, bool)
}

func main() {
	app := newApp(&cmdControl{})
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}

func newApp(common *cmdControl) *cobra.Command {
	app := &cobra.Command{
		Use:               "postmodel",
		Short:             "Inspect and administer configured databases",
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	app.PersistentFlags().StringVarP(&common.flagConfig, "config", "c", "", "Path to a postmodel.{yaml,toml,json} file")
	app.PersistentFlags().StringVar(&common.flagURL, "url", "", "Database URL, used instead of the configuration")
	app.PersistentFlags().StringVar(&common.flagDatabase, "database", engine.DefaultName, "Name of the configured database to use")
	app.PersistentFlags().StringSliceVar(&common.flagEnvFiles, "env-file", []string{".env", ".env.local"}, "Dotenv files to read")
	app.PersistentFlags().BoolVarP(&common.flagDebug, "debug", "d", false, "Show all debug messages")
	app.PersistentFlags().BoolVarP(&common.flagVerbose, "verbose", "v", false, "Show all information messages")

	var cmdPing = cmdPing{common: common}
	app.AddCommand(cmdPing.command())

	var cmdQuery = cmdQuery{common: common}
	app.AddCommand(cmdQuery.command())

	var cmdConfig = cmdConfig{common: common}
	app.AddCommand(cmdConfig.command())

	var cmdDatabase = cmdDatabase{common: common}
	app.AddCommand(cmdDatabase.command())

	app.InitDefaultHelpCmd()
	return app
}

func (c *cmdControl) logger(cmd *cobra.Command) logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(logrus.WarnLevel)
	if c.flagVerbose {
		log.SetLevel(logrus.InfoLevel)
	}
	if c.flagDebug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (c *cmdControl) loadOptions() []connector.LoadOption {
	opts := []connector.LoadOption{connector.WithDotenv(c.flagEnvFiles...)}
	if c.flagConfig != "" {
		opts = append(opts, connector.WithConfigFile(c.flagConfig))
	}
	if c.lookupEnv != nil {
		opts = append(opts, connector.WithLookupEnv(c.lookupEnv))
	}
	return opts
}

// settings loads the configuration, or builds it from --url.
func (c *cmdControl) settings() (*connector.Settings, error) {
	if c.flagURL == "" {
		return connector.LoadConfig(c.loadOptions()...)
	}
	cfg, err := connector.ParseURL(c.flagURL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &connector.Settings{Default: cfg}, nil
}

// config returns the configuration of the --database database.
func (c *cmdControl) config() (connector.Config, error) {
	s, err := c.settings()
	if err != nil {
		return connector.Config{}, err
	}
	if c.flagDatabase == engine.DefaultName {
		return s.Default, nil
	}
	cfg, ok := s.Databases[c.flagDatabase]
	if !ok {
		return connector.Config{}, fmt.Errorf("%w: no database named %q", errs.ErrConfiguration, c.flagDatabase)
	}
	return cfg, nil
}

// open opens every configured database.
func (c *cmdControl) open(ctx context.Context, cmd *cobra.Command) (*engine.Registry, error) {
	opts := []engine.Option{engine.WithLogger(c.logger(cmd))}
	if c.flagURL != "" {
		e, err := postmodel.Connect(ctx, c.flagURL, opts...)
		if err != nil {
			return nil, err
		}
		r := engine.NewRegistry()
		r.Add(e)
		return r, nil
	}
	return postmodel.Load(ctx, c.loadOptions(), opts...)
}
