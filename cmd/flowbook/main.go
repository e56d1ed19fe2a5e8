package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flowbook/common"
	"flowbook/config"
	"flowbook/flow"
	"flowbook/misc"
	"flowbook/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := env.Cfg.Logging.PanicLogName()
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Errors from subcommands are regular errors, they are logged once here and
// never wrapped with cli.Exit().
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

// layoutFlags are shared by commands computing layout.
func layoutFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "pages", Aliases: []string{"p"}, Usage: "search for image height which fills exactly `N` pages"},
		&cli.FloatFlag{Name: "image-height", Aliases: []string{"i"}, Usage: "preferred image height in `POINTS`"},
		&cli.StringFlag{Name: "ordering", Usage: "image ordering `MODE` (supported modes: " + strings.Join(common.OrderingModeNames(), ", ") + ")"},
		&cli.StringFlag{Name: "sort", Usage: "sort images by `FIELD` before sequential layout (supported fields: " + strings.Join(common.SortFieldNames(), ", ") + ")"},
		&cli.StringFlag{Name: "exif-key", Usage: "sort images by EXIF `TAG`, implies --sort exif"},
		&cli.BoolFlag{Name: "reverse", Usage: "reverse sort order"},
		&cli.Uint64Flag{Name: "seed", Usage: "random `SEED` for shuffled ordering"},
		&cli.BoolFlag{Name: "mirror", Usage: "mirror margins on left and right hand pages"},
		&cli.BoolFlag{Name: "double", Usage: "allow double page spreads"},
		&cli.StringFlag{Name: "force-zip-cp",
			Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
	}
}

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "flows images onto empty pages of Blurb BookSmart books",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "flow",
				Usage:        "Lays out unused images onto empty pages of the book",
				OnUsageError: usageErrorHandler,
				Action:       flow.Run,
				Flags: append(layoutFlags(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write resulting book to `FILE`"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite existing output file"},
					&cli.BoolFlag{Name: "no-backup", Usage: "do not preserve book description in old_bbfs"},
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "compute layout without changing anything"},
					&cli.StringFlag{Name: "preview", Usage: "render resulting pages into `DIRECTORY`"},
				),
				ArgsUsage: "BOOK [IMAGES...]",
				CustomHelpTemplate: fmt.Sprintf(`%s
BOOK:
    book to update, either ".blurb" file or directory with extracted book
    when book is a file result is written next to it unless --output is specified,
    directory is updated in place

IMAGES:
    image files, directories (processed recursively) or zip archives with images
    to add to the book before layout, already registered images are skipped
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "preview",
				Usage:        "Renders pages which would be produced for the book into PNG files",
				OnUsageError: usageErrorHandler,
				Action:       flow.Preview,
				Flags:        layoutFlags(),
				ArgsUsage:    "BOOK DESTINATION",
			},
			{
				Name:         "extract",
				Usage:        "Extracts book archive into a directory",
				OnUsageError: usageErrorHandler,
				Action:       flow.Extract,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "extract into non empty directory"},
				},
				ArgsUsage: "BOOK DESTINATION",
			},
			{
				Name:         "merge",
				Usage:        "Packs directory into book archive",
				OnUsageError: usageErrorHandler,
				Action:       flow.Merge,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite existing book"},
				},
				ArgsUsage: "DIRECTORY BOOK",
			},
			{
				Name:         "append",
				Usage:        "Concatenates books",
				OnUsageError: usageErrorHandler,
				Action:       flow.Append,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite existing target"},
				},
				ArgsUsage: "TARGET BOOK [BOOK...]",
				CustomHelpTemplate: fmt.Sprintf(`%s
TARGET:
    resulting book file

BOOK:
    books to concatenate, pages of every next book are added after the last
    page of the first one, so the first book must end on even page
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
