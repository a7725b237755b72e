package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/forecast"
)

var (
	predictionFile string
	observedDate   string
	pretty         bool
)

// Command creates the validate command which scores a stored refined
// prediction against the observed outcome date.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Score a refined prediction against the observed outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(settings)
		},
	}

	cmd.Flags().StringVarP(&predictionFile, "prediction", "p", "-", "Stored prediction result JSON, - for stdin")
	cmd.Flags().StringVar(&observedDate, "observed", "", "Observed outcome date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")

	return cmd
}

func runValidate(settings *conf.Settings) error {
	if observedDate == "" {
		return fmt.Errorf("--observed is required")
	}

	prior, err := loadPrediction(predictionFile)
	if err != nil {
		return err
	}

	engine, err := forecast.New(settings)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Validate(prior, observedDate)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func loadPrediction(path string) (*forecast.PredictionResult, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // G304: user-supplied prediction file
	}
	if err != nil {
		return nil, fmt.Errorf("reading prediction: %w", err)
	}

	prior := &forecast.PredictionResult{}
	if err := json.Unmarshal(data, prior); err != nil {
		return nil, fmt.Errorf("parsing prediction: %w", err)
	}
	return prior, nil
}
