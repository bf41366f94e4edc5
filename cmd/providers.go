package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/storage"
	"github.com/urfave/cli/v3"
)

// ProvidersCommand creates the providers command
func ProvidersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List configured providers in ranking order",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listProviders(ctx, c.String("config"))
		},
	}
}

func listProviders(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	// Entry counts are informational, the list is printed without an index.
	var counts map[string]int
	if store, err := storage.Open(cfg.Storage.Path, storage.Options{ReadOnly: true}); err != nil {
		logger.Debugf("index unavailable: %v", err)
	} else {
		defer store.Close()
		if counts, err = store.CountBySource(ctx); err != nil {
			logger.Warnf("counting entries: %v", err)
		}
	}

	fmt.Print(titleStyle.Render(fmt.Sprintf("%d providers", registry.Len())))
	fmt.Println()
	for i, p := range registry.Providers() {
		entries := "-"
		if counts != nil {
			entries = strconv.Itoa(counts[p.Key])
		}
		fmt.Printf("%s %s %s\n    %s\n",
			metaStyle.Render(fmt.Sprintf("%2d.", i+1)),
			nameStyle.Render(p.Key),
			metaStyle.Render(fmt.Sprintf("(%s, %s entries)", p.DisplayName(), entries)),
			urlStyle.Render(p.BaseURL),
		)
	}
	return nil
}
