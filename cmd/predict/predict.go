package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/forecast"
)

var (
	domain    string
	stage     string
	inputFile string
	pretty    bool

	req forecast.PredictionRequest
)

// Command creates the predict command. The prediction stage is picked
// automatically: a request carrying an event date goes through the
// refined model path, one without it gets the heuristic initial
// estimate. The --stage flag overrides the choice.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Compute a single propagation prediction",
		Long: "Compute a single propagation prediction from flags or a JSON request file.\n" +
			"Requests with an event date are refined against the trained model,\n" +
			"requests without one get the heuristic initial estimate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(settings)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", conf.DomainPollination, "Prediction domain")
	cmd.Flags().StringVar(&stage, "stage", "", "Force prediction stage (inicial or refinada)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read the request from a JSON file instead of flags")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	cmd.Flags().StringVar(&req.Species, "species", "", "Species name")
	cmd.Flags().StringVar(&req.Genus, "genus", "", "Genus name, used when the species is unknown")
	cmd.Flags().StringVar(&req.Climate, "climate", "", "Climate code (C, W, I) or word form")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location name")
	cmd.Flags().StringVar(&req.PollinationType, "type", "", "Pollination type (SELF, SIBBLING, HYBRID)")
	cmd.Flags().IntVar(&req.Quantity, "quantity", 0, "Quantity involved in the event")
	cmd.Flags().IntVar(&req.Availability, "availability", 0, "Availability flag (0 or 1)")
	cmd.Flags().StringVar(&req.EventDate, "date", "", "Event date (2006-01-02), enables the refined stage")
	cmd.Flags().StringVar(&req.Responsible, "responsible", "", "Person responsible for the event")

	return cmd
}

func runPredict(settings *conf.Settings) error {
	request := &req
	if inputFile != "" {
		loaded, err := loadRequest(inputFile)
		if err != nil {
			return err
		}
		request = loaded
	}

	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	engine, err := forecast.New(settings)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := runStage(engine, request)
	if err != nil {
		return err
	}

	if err := printJSON(os.Stdout, result, pretty); err != nil {
		return err
	}
	if result.IsError() {
		return fmt.Errorf("prediction failed: %s", result.ErrorCode)
	}
	return nil
}

// runStage dispatches the request to the selected or inferred stage.
func runStage(engine *forecast.Engine, request *forecast.PredictionRequest) (*forecast.PredictionResult, error) {
	resolved := stage
	if resolved == "" {
		if strings.TrimSpace(request.EventDate) != "" {
			resolved = forecast.StageRefined
		} else {
			resolved = forecast.StageInitial
		}
	}

	switch resolved {
	case forecast.StageInitial:
		return engine.Initial(domain, request), nil
	case forecast.StageRefined:
		return engine.Refined(domain, request, nil), nil
	default:
		return nil, fmt.Errorf("unknown stage %q, expected %q or %q", resolved, forecast.StageInitial, forecast.StageRefined)
	}
}

func loadRequest(path string) (*forecast.PredictionRequest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	var request forecast.PredictionRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return &request, nil
}

func printJSON(w *os.File, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
