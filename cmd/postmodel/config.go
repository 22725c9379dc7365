package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/postmodel/connector"
)

const maskedPassword = "xxxxx"

type cmdConfig struct {
	common *cmdControl

	flagShowPasswords bool
}

func (c *cmdConfig) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE:  c.run,
	}

	cmd.Flags().BoolVar(&c.flagShowPasswords, "show-passwords", false, "Print passwords instead of masking them")

	return cmd
}

func (c *cmdConfig) run(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cmd.Help()
	}

	s, err := c.common.settings()
	if err != nil {
		return err
	}
	if !c.flagShowPasswords {
		s = masked(s)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func masked(s *connector.Settings) *connector.Settings {
	mask := func(cfg connector.Config) connector.Config {
		if cfg.Password != "" {
			cfg.Password = maskedPassword
		}
		return cfg
	}
	out := &connector.Settings{Default: mask(s.Default)}
	if len(s.Databases) > 0 {
		out.Databases = make(map[string]connector.Config, len(s.Databases))
		for name, cfg := range s.Databases {
			out.Databases[name] = mask(cfg)
		}
	}
	return out
}
