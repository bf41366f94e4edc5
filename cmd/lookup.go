package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/resolve"
	"github.com/urfave/cli/v3"
)

// LookupCommand creates the lookup command
func LookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Resolve audio sources for a term against the local index",
		ArgsUsage: "TERM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reading",
				Usage: "Reading used to narrow results",
			},
			&cli.StringFlag{
				Name:  "sources",
				Usage: "Comma separated provider selection, e.g. nhk16,-forvo",
			},
			&cli.StringFlag{
				Name:  "exclude-regex",
				Usage: "Drop results whose display name matches this pattern",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host used for proxied URLs",
				Value: "localhost",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one TERM argument")
			}
			return lookup(ctx, c.String("config"), resolve.Request{
				Term:                c.Args().First(),
				Reading:             c.String("reading"),
				Sources:             c.String("sources"),
				ExcludeDisplayRegex: c.String("exclude-regex"),
				Host:                c.String("host"),
			})
		},
	}
}

func lookup(ctx context.Context, configPath string, req resolve.Request) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	svc, store, _, err := openResolver(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sources, err := svc.Resolve(ctx, req)
	if err != nil {
		return err
	}

	fmt.Print(renderSources(req, sources))
	return nil
}

func renderSources(req resolve.Request, sources []core.AudioSource) string {
	var b strings.Builder

	title := req.Term
	if req.Reading != "" {
		title += " 「" + req.Reading + "」"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if len(sources) == 0 {
		b.WriteString(noDataStyle.Render("No audio sources found"))
		b.WriteString("\n")
		return b.String()
	}

	for i, s := range sources {
		fmt.Fprintf(&b, "%s %s\n", metaStyle.Render(fmt.Sprintf("%2d.", i+1)), nameStyle.Render(s.Name))
		fmt.Fprintf(&b, "    %s\n", urlStyle.Render(s.URL))
	}
	fmt.Fprintf(&b, "\n%s\n", metaStyle.Render(fmt.Sprintf("%d sources", len(sources))))
	return b.String()
}
