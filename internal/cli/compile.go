package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output            string // output file path
	ExcludeDeprecated bool
	Watch             bool
}

// CompilationResult summarises a generated schema.
type CompilationResult struct {
	SDL           string   `json:"sdl"`
	TypeCount     int      `json:"type_count"`
	Subscriptions []string `json:"subscriptions,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <declarations>",
		Short: "Compile declarations to a GraphQL schema",
		Long: `Compile annotated type declarations to the full GraphQL schema.

<declarations> is a .graphql/.gql SDL file, a .cue file or a directory of
CUE files. The printed SDL is byte-identical for identical input.

With --watch the declarations are recompiled whenever they change, until
the command is interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.ExcludeDeprecated, "exclude-deprecated", false, "omit deprecated filter and mutation aliases")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompile when the declarations change")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	err := compileOnce(opts, path, formatter)
	if !opts.Watch {
		return err
	}

	// Build failures are reported and the watch keeps going.
	logger := opts.Logger
	return watchDeclarations(ctx, path, func() {
		logger.Info().Str("path", path).Msg("declarations changed, recompiling")
		if err := compileOnce(opts, path, formatter); err != nil {
			logger.Warn().Err(err).Msg("recompile failed")
		}
	}, func(err error) {
		logger.Error().Err(err).Msg("file watcher error")
	})
}

func compileOnce(opts *CompileOptions, path string, formatter *OutputFormatter) error {
	s, errs := LoadSchema(path, schemaOptions(opts.RootOptions, opts.ExcludeDeprecated))
	if len(errs) > 0 {
		return outputLoadErrors(formatter, errs)
	}

	result := newCompilationResult(s)
	formatter.VerboseLog("Compiled %d type(s) from %s", result.TypeCount, path)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.SDL), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func newCompilationResult(s *schema.Schema) *CompilationResult {
	result := &CompilationResult{
		SDL:       s.SDL,
		TypeCount: len(s.TypeNames()),
	}
	if sub := s.Type("Subscription"); sub != nil {
		result.Subscriptions = sub.FieldNames()
	}
	return result
}

// outputCompileSuccess outputs successful compilation results. Text output
// without --output is the SDL itself so it can be piped.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if outputFile == "" {
		_, err := fmt.Fprint(formatter.Writer, result.SDL)
		return err
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d type(s), %d subscription field(s)\n",
		result.TypeCount, len(result.Subscriptions))
	fmt.Fprintf(formatter.Writer, "Wrote schema to %s\n", outputFile)
	return nil
}

// watchDeclarations calls rebuild after every write to the declarations
// until ctx is cancelled. A directory is watched as a whole; for a file its
// directory is watched, which also sees editors that save by rename.
func watchDeclarations(ctx context.Context, path string, rebuild func(), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "create watcher", err)
	}
	defer watcher.Close()

	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "watch declarations", err)
	}
	dir, file := path, ""
	if !info.IsDir() {
		dir, file = filepath.Dir(path), filepath.Clean(path)
	}
	if err := watcher.Add(dir); err != nil {
		return WrapExitError(ExitCommandError, "watch directory", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if file != "" && filepath.Clean(ev.Name) != file {
				continue
			}
			if file == "" && filepath.Ext(ev.Name) != ".cue" {
				continue
			}
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
