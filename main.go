package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/prefabind/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := commands.NewController(&commands.Flags{})

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	updateFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:  "update",
			Usage: "regenerate the bound script after the edit",
		}
	}
	bindOptions := func(c *cli.Command) commands.BindOptions {
		return commands.BindOptions{Update: c.Bool("update")}
	}

	app := &cli.Command{
		Name:    "prefabind",
		Usage:   "Bind Unity prefab components to tagged regions of UI scripts",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("PREFABIND_LOG_LEVEL"),
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to prefabind.json (default: search upwards from the working directory)",
				Sources: cli.EnvVars("PREFABIND_CONFIG"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = c.String("log-level")
			ctrl.Flags.Config = c.String("config")

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create a context manifest for a prefab",
				ArgsUsage: "[asset]",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx, c.Args().First())
				},
			},
			{
				Name:  "id",
				Usage: "Manage context identifiers",
				Commands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "Issue a fresh identifier for a context",
						ArgsUsage: "<manifest|asset>",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "force",
								Aliases: []string{"f"},
								Usage:   "replace an existing identifier without asking",
							},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.IDNew(ctx, c.Args().First(), c.Bool("force"))
						},
					},
				},
			},
			{
				Name:      "update",
				Usage:     "Regenerate the bound region of each context's script",
				ArgsUsage: "<manifest|asset>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Usage: "open each updated script in the editor",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Update(ctx, c.Args().Slice(), commands.UpdateOptions{Open: c.Bool("open")})
				},
			},
			{
				Name:      "tag",
				Usage:     "Print the empty region to paste into a script",
				ArgsUsage: "<manifest|asset>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "copy",
						Usage: "copy the region to the clipboard",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Tag(ctx, c.Args().First(), c.Bool("copy"))
				},
			},
			{
				Name:      "open",
				Usage:     "Open the bound script in the configured editor",
				ArgsUsage: "<manifest|asset>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Open(ctx, c.Args().First())
				},
			},
			{
				Name:      "locate",
				Usage:     "Print the path of the bound script",
				ArgsUsage: "<manifest|asset>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Locate(ctx, c.Args().First())
				},
			},
			{
				Name:  "bind",
				Usage: "Edit the bindings of a context",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Append a binding",
						ArgsUsage: "<manifest|asset> <field>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "type",
								Aliases: []string{"t"},
								Usage:   "component type",
							},
							&cli.StringFlag{
								Name:  "context",
								Usage: "manifest of a nested bound context, relative to this one",
							},
							updateFlag(),
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.BindAdd(ctx, c.Args().Get(0), c.Args().Get(1), c.String("type"), c.String("context"), bindOptions(c))
						},
					},
					{
						Name:      "rm",
						Usage:     "Remove a binding",
						ArgsUsage: "<manifest|asset> <field|index>",
						Flags:     []cli.Flag{updateFlag()},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.BindRemove(ctx, c.Args().Get(0), c.Args().Get(1), bindOptions(c))
						},
					},
					{
						Name:      "list",
						Usage:     "List bindings in order",
						ArgsUsage: "<manifest|asset>",
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.BindList(ctx, c.Args().First())
						},
					},
					{
						Name:      "rename",
						Usage:     "Rename a binding's field",
						ArgsUsage: "<manifest|asset> <field|index> <new-field>",
						Flags:     []cli.Flag{updateFlag()},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.BindRename(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), bindOptions(c))
						},
					},
					{
						Name:      "type",
						Usage:     "Change a binding's component type",
						ArgsUsage: "<manifest|asset> <field|index> <type>",
						Flags:     []cli.Flag{updateFlag()},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.BindType(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), bindOptions(c))
						},
					},
				},
			},
			{
				Name:  "registry",
				Usage: "Inspect the identifier registry",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List recorded bindings",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "output format (table, json, yaml)",
								Value:   commands.FormatTable,
							},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.RegistryList(ctx, c.String("output"))
						},
					},
					{
						Name:      "rm",
						Usage:     "Forget the recorded script for an identifier",
						ArgsUsage: "<id>",
						Action: func(ctx context.Context, c *cli.Command) error {
							return ctrl.RegistryRemove(ctx, c.Args().First())
						},
					},
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate bindings whenever a manifest is saved",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run prefabind")
	}
}
