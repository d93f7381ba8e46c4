/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/naming"
)

const name = "vpx"

// overridden during build with ldflags
var version = "dev"

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML configuration file (defaults are used when omitted)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "Log level (debug, info, warn, error)",
	}
)

// newApp builds the root command writing results to out and logs to errOut.
func newApp(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Convention-based view resolution tooling",
		Version:   version,
		Writer:    out,
		ErrWriter: errOut,
		Flags:     []cli.Flag{configFlag, logLevelFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			lvl, err := zerolog.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("invalid log level %q: %w", cmd.String("log-level"), err)
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: errOut, NoColor: true}).
				Level(lvl).With().Timestamp().Str("name", name).Logger()
			return log.WithContext(ctx), nil
		},
		Commands: []*cli.Command{
			nameCmd(),
			configCmd(),
		},
	}
}

func nameCmd() *cli.Command {
	return &cli.Command{
		Name:  "name",
		Usage: "Derive the view name for a view-model",
		Description: `Derive the identifier of the view presenting a view-model.

The view-model is given as a namespace and a simple name:
  vpx name App.ViewModels MainWindowModel      -> App.Views.MainWindow

With --cross the cross-module convention is used and only the simple
name is derived:
  vpx name --cross Unrelated.Layout SomeViewModel -> SomeView`,
		ArgsUsage: "<namespace> <name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "cross",
				Usage: "Use the cross-module convention (namespaces are ignored)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("expected <namespace> <name>, got %d arguments", cmd.NArg())
			}
			f, err := loadFile(cmd)
			if err != nil {
				return err
			}
			log := zerolog.Ctx(ctx)

			id := apis.TypeID{Namespace: cmd.Args().Get(0), Name: cmd.Args().Get(1)}
			var view string
			if cmd.Bool("cross") {
				view, err = naming.BuildSimpleName(id, f.CrossModule)
			} else {
				view, err = naming.BuildFullName(id, f.Naming)
			}
			if err != nil {
				return err
			}
			log.Debug().Str("view_model", id.FullName()).Str("view", view).Msg("derived view name")

			_, err = fmt.Fprintln(cmd.Root().Writer, view)
			return err
		},
	}
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := loadFile(cmd)
			if err != nil {
				return err
			}
			data, err := f.Marshal()
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			_, err = cmd.Root().Writer.Write(data)
			return err
		},
	}
}

// loadFile returns the file named by --config, or the defaults.
func loadFile(cmd *cli.Command) (config.File, error) {
	path := cmd.String("config")
	if path == "" {
		return config.DefaultFile(), nil
	}
	f, err := config.Load(path)
	if err != nil {
		return config.File{}, fmt.Errorf("failed to load configuration from %q: %w", path, err)
	}
	return f, nil
}
