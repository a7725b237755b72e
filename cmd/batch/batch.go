package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/forecast"
	"github.com/mgarzon/floracast-go/internal/observability"
)

// maxLineSize bounds a single JSONL request line.
const maxLineSize = 1024 * 1024

var (
	domain     string
	stage      string
	inputFile  string
	outputFile string
)

// Command creates the batch command. Input is one JSON prediction
// request per line, output is the matching result per line in input
// order. Per-item failures are reported inline as error results, the
// run summary goes to stderr.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compute predictions for a JSONL request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, settings)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", conf.DomainPollination, "Prediction domain for all requests")
	cmd.Flags().StringVar(&stage, "stage", "", "Force prediction stage for all requests (inicial or refinada)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "-", "JSONL request file, - for stdin")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "JSONL result file, - for stdout")
	cmd.Flags().IntVarP(&settings.Forecast.Batch.Workers, "workers", "w",
		viper.GetInt("forecast.batch.workers"), "Worker count, 0 to derive from CPU topology")

	return cmd
}

func runBatch(cmd *cobra.Command, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, closeIn, err := openInput(inputFile)
	if err != nil {
		return err
	}
	defer closeIn()

	items, parseFailures, err := readItems(in)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no requests found in %s", inputFile)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	var wg sync.WaitGroup
	quitChan := make(chan struct{})
	if settings.Metrics.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
		defer func() {
			close(quitChan)
			wg.Wait()
		}()
	}

	engine, err := forecast.New(settings)
	if err != nil {
		return err
	}
	defer engine.Close()

	// Long runs over large request files pick up artifact refreshes
	// when watching is enabled.
	if err := engine.StartWatchers(ctx); err != nil {
		return err
	}

	start := time.Now()
	results, err := engine.Batch(ctx, items)
	if err != nil {
		return fmt.Errorf("batch aborted: %w", err)
	}

	out, closeOut, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	failed := 0
	enc := json.NewEncoder(out)
	for _, result := range results {
		if result.IsError() {
			failed++
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("writing result: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Processed %d requests in %v: %d ok, %d failed",
		len(results), time.Since(start).Round(time.Millisecond), len(results)-failed, failed)
	if parseFailures > 0 {
		fmt.Fprintf(os.Stderr, " (%d unparseable lines)", parseFailures)
	}
	fmt.Fprintln(os.Stderr)

	return nil
}

// readItems parses one request per line. A line that is not valid JSON
// becomes an item with a nil request so the engine reports it as an
// inline error result in the right output position.
func readItems(r io.Reader) (items []forecast.BatchItem, parseFailures int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		item := forecast.BatchItem{Domain: domain, Stage: stage}
		request := &forecast.PredictionRequest{}
		if err := json.Unmarshal(line, request); err != nil {
			parseFailures++
		} else {
			item.Request = request
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading requests: %w", err)
	}
	return items, parseFailures, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // G304: user-supplied input file
	if err != nil {
		return nil, nil, fmt.Errorf("opening request file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path) //nolint:gosec // G304: user-supplied output file
	if err != nil {
		return nil, nil, fmt.Errorf("creating result file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
