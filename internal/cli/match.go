package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/schemaforge/internal/event"
	"github.com/roach88/schemaforge/internal/predicate"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/subscription"
	"github.com/roach88/schemaforge/internal/value"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Codec         string // "json" | "msgpack"
	Variables     string // JSON object
	OperationName string
}

// MatchedEvent is one delivery of the subscription.
type MatchedEvent struct {
	Event   string       `json:"event"`
	Seq     int64        `json:"seq"`
	Payload value.Object `json:"payload"`
}

// MatchResult lists the events a subscription would have received.
type MatchResult struct {
	Field     string         `json:"field"`
	Published int            `json:"published"`
	Matched   []MatchedEvent `json:"matched"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <declarations> <subscription-file> <events-file>...",
		Short: "Replay change events through a subscription",
		Long: `Open the subscription in <subscription-file> against the schema and
replay change events through it, printing every event it would deliver.

With --codec json (the default) each events file holds one JSON event per
line. With --codec msgpack each events file holds a single MessagePack
encoded event.

Exit codes:
  0 - At least one event matched
  1 - The subscription was refused or no event matched
  2 - Command error (bad declarations, unreadable files)`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.Context(), opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Codec, "codec", "json", "change event encoding (json|msgpack)")
	cmd.Flags().StringVar(&opts.Variables, "variables", "", "subscription variables as a JSON object")
	cmd.Flags().StringVar(&opts.OperationName, "operation", "", "operation to run when the document has several")

	return cmd
}

func runMatch(ctx context.Context, opts *MatchOptions, path, subscriptionFile string, eventFiles []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	codec, err := event.CodecFor(opts.Codec)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	var vars map[string]any
	if opts.Variables != "" {
		vars, err = decodeVariables(opts.Variables)
		if err != nil {
			return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("parsing --variables: %v", err), nil)
		}
	}
	query, err := os.ReadFile(subscriptionFile)
	if err != nil {
		return outputValidateError(formatter, ErrCodeReadFailed, fmt.Sprintf("reading subscription: %v", err), nil)
	}

	s, errs := LoadSchema(path, schemaOptions(opts.RootOptions, false))
	if len(errs) > 0 {
		return outputLoadErrors(formatter, errs)
	}

	cfg := opts.settings()
	b, err := subscription.New(s, subscription.Options{
		Workers:    cfg.Broker.Workers,
		Buffer:     cfg.Broker.Buffer,
		Logger:     opts.Logger,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "start broker", err)
	}
	defer b.Close()

	sub, err := b.Subscribe(ctx, subscription.Request{
		Query:         string(query),
		OperationName: opts.OperationName,
		Variables:     vars,
	})
	if err != nil {
		_ = formatter.Error(subscribeErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "subscription refused", err)
	}

	result := MatchResult{Field: sub.Target.Field, Matched: []MatchedEvent{}}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for d := range sub.Deliveries() {
			result.Matched = append(result.Matched, MatchedEvent{Event: d.Event.ID, Seq: d.Seq, Payload: d.Payload})
		}
	}()

	published, err := replay(ctx, b, codec, eventFiles)
	if err != nil {
		sub.Close()
		<-collected
		return outputValidateError(formatter, ErrCodeInvalidChangeStream, err.Error(), nil)
	}
	b.Drain()
	if err := b.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "dispatch events", err)
	}
	sub.Close()
	<-collected
	result.Published = published

	return outputMatchResult(formatter, result)
}

// replay publishes every event in files and returns how many were read.
func replay(ctx context.Context, b *subscription.Broker, codec event.Codec, files []string) (int, error) {
	total := 0
	for _, file := range files {
		src, closeFn, err := openSource(codec, file)
		if err != nil {
			return total, err
		}
		counted := &countingSource{Source: src}
		err = b.Consume(ctx, counted)
		closeFn()
		total += counted.n
		if err != nil {
			return total, fmt.Errorf("%s: %w", file, err)
		}
	}
	return total, nil
}

func openSource(codec event.Codec, file string) (subscription.Source, func(), error) {
	if codec == event.JSON {
		f, err := os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("open events: %w", err)
		}
		return subscription.NewLineSource(f), func() { f.Close() }, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read events: %w", err)
	}
	ev, err := codec.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	return subscription.NewSliceSource(ev), func() {}, nil
}

// countingSource counts the events a Source yields.
type countingSource struct {
	subscription.Source
	n int
}

func (c *countingSource) Next(ctx context.Context) (*event.ChangeEvent, error) {
	ev, err := c.Source.Next(ctx)
	if err == nil {
		c.n++
	}
	return ev, err
}

// decodeVariables keeps numbers as json.Number so BigInt variables are not
// rounded through float64.
func decodeVariables(s string) (map[string]any, error) {
	v, err := value.DecodeJSON([]byte(s))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(value.Object)
	if !ok {
		return nil, errors.New("must be a JSON object")
	}
	vars := make(map[string]any, len(obj))
	for k, val := range obj {
		vars[k] = val
	}
	return vars, nil
}

func subscribeErrorCode(err error) string {
	var (
		verr *schema.ValidationError
		lerr *predicate.LiteralError
		ferr *predicate.FilterError
		rerr *subscription.RequestError
	)
	switch {
	case errors.As(err, &verr):
		return ErrCodeInvalidDocument
	case errors.As(err, &lerr):
		return ErrCodeInvalidLiteral
	case errors.As(err, &ferr):
		return ErrCodeInvalidFilter
	case errors.As(err, &rerr):
		return ErrCodeUnsupportedRequest
	default:
		return ErrCodeGeneric
	}
}

func outputMatchResult(formatter *OutputFormatter, result MatchResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, m := range result.Matched {
			payload, err := json.Marshal(m.Payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(formatter.Writer, "✓ %s %s\n", m.Event, payload)
		}
		fmt.Fprintf(formatter.Writer, "%d of %d event(s) matched %s\n",
			len(result.Matched), result.Published, result.Field)
	}

	if len(result.Matched) == 0 {
		return NewExitError(ExitFailure, "no event matched")
	}
	return nil
}
