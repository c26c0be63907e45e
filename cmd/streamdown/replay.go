package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/odvcencio/streamdown/pkg/chunker"
	"github.com/odvcencio/streamdown/pkg/config"
	"github.com/odvcencio/streamdown/pkg/logging"
	"github.com/odvcencio/streamdown/pkg/markdown"
	"github.com/odvcencio/streamdown/pkg/segment"
	"github.com/odvcencio/streamdown/pkg/terminal"
)

// replayOptions holds the parsed replay flags.
type replayOptions struct {
	file       string
	configPath string
	chunk      bool
	chunkSet   bool
	preview    bool
	noRender   bool
	quiet      bool
	deltaSize  int
}

func parseReplayFlags(args []string) (*replayOptions, error) {
	opts := &replayOptions{}
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.StringVar(&opts.file, "file", "", "read the stream from a file instead of stdin")
	fs.StringVar(&opts.configPath, "config", "", "load configuration from a specific file")
	chunk := fs.Bool("chunk", false, "re-pace deltas through the adaptive chunker")
	fs.BoolVar(&opts.preview, "preview", false, "print the balanced preview after each delta")
	fs.BoolVar(&opts.noRender, "no-render", false, "disable terminal markdown rendering")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress live output, show progress only")
	fs.IntVar(&opts.deltaSize, "delta-size", 256, "bytes read per simulated delta")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.chunk = *chunk
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "chunk" {
			opts.chunkSet = true
		}
	})
	if opts.deltaSize <= 0 {
		return nil, errors.New("delta-size must be positive")
	}
	return opts, nil
}

func runReplay(args []string) error {
	opts, err := parseReplayFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.chunkSet {
		cfg.Chunker.Enabled = opts.chunk
	}
	if opts.noRender {
		cfg.Render.Enabled = false
	}

	sessionID := newSessionID()
	logger, err := newSessionLogger(cfg.Logging, sessionID)
	if err != nil {
		return err
	}
	if logger != nil {
		defer logger.Close()
	}

	var reasoningLog *logging.ReasoningLogger
	if cfg.Logging.Dir != "" && !cfg.Logging.Disabled {
		reasoningLog, err = logging.NewReasoningLogger(cfg.Logging.Dir)
		if err != nil {
			return err
		}
		defer reasoningLog.Close()
	}

	input, err := openInput(opts.file)
	if err != nil {
		return err
	}
	defer input.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := terminal.New(cfg.Render)
	segOpts := segmentOptions(cfg.Segmenter)

	var status *terminal.StatusLine
	if opts.quiet {
		status = terminal.NewStatusLine()
		status.Start()
	}

	balancer := markdown.NewBalancer()
	if err := feedStream(ctx, input, opts, cfg, out, balancer, status, logger, segOpts); err != nil {
		if status != nil {
			status.Stop()
		}
		return err
	}

	raw := balancer.Finalize()
	segments := segment.Reasoning(raw, segOpts...)
	if status != nil {
		status.Update(len(raw), len(segments))
		status.StopWithSummary()
	} else {
		out.StreamEnd()
		out.Divider()
	}

	if logger != nil {
		logger.Info(logging.CategorySegment, "stream_complete", "", map[string]any{
			"session_id": sessionID,
			"raw_len":    len(raw),
			"segments":   len(segments),
		})
	}

	return renderSegments(out, segments, reasoningLog, sessionID)
}

// openInput returns the replay source: a file when given, stdin
// otherwise.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// feedStream pulls deltas from input until EOF, pacing and echoing
// them as configured.
func feedStream(
	ctx context.Context,
	input io.Reader,
	opts *replayOptions,
	cfg *config.Config,
	out *terminal.Writer,
	balancer *markdown.Balancer,
	status *terminal.StatusLine,
	logger *logging.Logger,
	segOpts []segment.ReasoningOption,
) error {
	splitter := chunker.NewSplitter(chunker.Config{
		Enabled:        cfg.Chunker.Enabled,
		MinPassthrough: cfg.Chunker.MinPassthrough,
		MaxChunkLength: cfg.Chunker.MaxChunkLength,
		Delay:          cfg.Chunker.Delay(),
	})
	words := chunker.NewWordSplitter(cfg.Chunker.Delay())

	buf := make([]byte, opts.deltaSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := input.Read(buf)
		if n > 0 {
			delta := string(buf[:n])
			preview := balancer.Ingest(delta)

			if logger != nil {
				logger.Debug(logging.CategoryBalance, "delta", "", map[string]any{
					"delta_len":   n,
					"raw_len":     balancer.Len(),
					"preview_len": len(preview),
				})
			}

			switch {
			case status != nil:
				status.Update(balancer.Len(), len(segment.Reasoning(balancer.Finalize(), segOpts...)))
			case opts.preview:
				out.Divider()
				if err := out.Markdown(preview); err != nil && logger != nil {
					logger.Warn(logging.CategoryBalance, "render_failed", err.Error(), nil)
				}
			default:
				emitDelta(ctx, cfg.Chunker.Mode, splitter, words, out, delta)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if logger != nil {
				logger.Error(logging.CategoryInput, "read_failed", readErr.Error(), nil)
			}
			return fmt.Errorf("read input: %w", readErr)
		}
	}

	// Word mode may still hold a trailing partial word.
	if tail := words.Flush(); tail != "" && status == nil && !opts.preview {
		out.Stream(tail)
	}
	return nil
}

// emitDelta echoes one delta through the configured pacing mode.
func emitDelta(
	ctx context.Context,
	mode string,
	splitter *chunker.Splitter,
	words *chunker.WordSplitter,
	out *terminal.Writer,
	delta string,
) {
	switch mode {
	case "word":
		for piece := range words.Split(ctx, delta) {
			out.Stream(piece)
		}
	default:
		for piece := range splitter.Split(ctx, delta) {
			out.Stream(piece)
		}
	}
}

// renderSegments draws the final segmented view and records reasoning
// entries in the transcript log.
func renderSegments(
	out *terminal.Writer,
	segments []segment.Segment,
	reasoningLog *logging.ReasoningLogger,
	sessionID string,
) error {
	for _, seg := range segments {
		if seg.Kind == segment.KindReasoning && reasoningLog != nil {
			entry := seg.Reasoning
			if err := reasoningLog.WriteEntry(sessionID, entry.Cleaned(), entry.DurationSeconds, entry.Done); err != nil {
				out.Dim("reasoning log: %v", err)
			}
		}
		if seg.Kind == segment.KindText {
			// Text spans may still contain tool-call markup.
			for _, inner := range segment.ToolCalls(seg.Text) {
				if err := out.Segment(inner); err != nil {
					return err
				}
			}
			continue
		}
		if err := out.Segment(seg); err != nil {
			return err
		}
	}
	return nil
}
