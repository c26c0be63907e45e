// Command streamdown replays model output streams through the
// segmentation pipeline: it re-paces deltas, balances the markdown
// preview, and renders reasoning blocks and tool calls as they would
// appear in a chat UI. It can also serve the pipeline over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/odvcencio/streamdown/pkg/config"
	"github.com/odvcencio/streamdown/pkg/logging"
	"github.com/odvcencio/streamdown/pkg/segment"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	args := os.Args[1:]

	var sub string
	if len(args) > 0 {
		sub = args[0]
	}

	var err error
	switch sub {
	case "serve":
		err = runServe(args[1:])
	case "version":
		fmt.Printf("streamdown %s (%s, built %s)\n", version, commit, buildDate)
	case "help", "-h", "--help":
		printUsage()
	case "replay":
		err = runReplay(args[1:])
	default:
		// Bare invocation replays stdin.
		err = runReplay(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`streamdown - streaming chat output parser

Usage:
  streamdown [replay] [flags]   replay a stream from stdin or a file
  streamdown serve [flags]      run the HTTP demo server
  streamdown version            print version information

Replay flags:
  -file path       read the stream from a file instead of stdin
  -config path     load configuration from a specific file
  -chunk           re-pace deltas through the adaptive chunker
  -preview         print the balanced preview after each delta
  -no-render       disable terminal markdown rendering

Serve flags:
  -config path     load configuration from a specific file
  -bind addr       listen address (host:port)
`)
}

// loadConfig resolves configuration from an explicit path or the
// default hierarchy.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// newSessionLogger builds the structured logger when a log directory is
// configured; logging stays off otherwise.
func newSessionLogger(cfg config.LoggingConfig, sessionID string) (*logging.Logger, error) {
	if cfg.Disabled || cfg.Dir == "" {
		return nil, nil
	}
	logger, err := logging.NewLogger(cfg.Dir, sessionID)
	if err != nil {
		return nil, err
	}
	if cfg.Level != "" {
		logger.SetMinLevel(logging.Level(cfg.Level))
	}
	return logger, nil
}

// segmentOptions converts configured tag pairs into segmenter options.
func segmentOptions(cfg config.SegmenterConfig) []segment.ReasoningOption {
	var opts []segment.ReasoningOption
	if cfg.DisableDefaultTags {
		opts = append(opts, segment.WithoutDefaultTags())
	}
	for _, pair := range cfg.ExtraTags {
		opts = append(opts, segment.WithTagPair(pair.Open, pair.Close))
	}
	return opts
}

func newSessionID() string {
	return uuid.NewString()
}
