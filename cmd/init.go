package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/storage"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "create-db",
				Usage: "Also create an empty entries index at the configured storage path",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(ctx, c.String("config"), c.Bool("create-db"))
		},
	}
}

// initConfig writes the sample configuration and optionally an empty index
func initConfig(ctx context.Context, configPath string, createDB bool) error {
	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return err
	}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration initialized at %s\n", configPath)

	if !createDB {
		return nil
	}
	if _, err := os.Stat(cfg.Storage.Path); err == nil {
		fmt.Printf("Index already exists at %s\n", cfg.Storage.Path)
		return nil
	}
	if err := storage.CreateDatabase(ctx, cfg.Storage.Path); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	fmt.Printf("Empty index created at %s\n", cfg.Storage.Path)
	return nil
}
