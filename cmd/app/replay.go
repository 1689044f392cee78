package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"Sentinel/internal/di"
	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/evaluator"
	"Sentinel/internal/services/regime"
	"Sentinel/internal/services/risk"
	"Sentinel/pkg/config"
	xhttp "Sentinel/pkg/http"
)

var (
	replayFile   string
	replayRegime string
	replayPretty bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Evaluate a recorded input offline",
	Long: `Replay runs one evaluation over a JSON evaluation input with a fresh risk
state and prints the result. No storage, sources or kafka are touched.

Examples:
  sentinel replay --file input.json
  cat input.json | sentinel replay --file - --regime BULL`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayFile, "file", "-", "evaluation input JSON, - for stdin")
	replayCmd.Flags().StringVar(&replayRegime, "regime", "", "market regime override (BULL, BEAR, SHOCK)")
	replayCmd.Flags().BoolVar(&replayPretty, "pretty", true, "indent output")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathIfExists(configPath))
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	in, err := readInput(cmd.InOrStdin(), replayFile)
	if err != nil {
		return err
	}

	out, err := replay(cfg, in, replayRegime)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if replayPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func replay(cfg *config.Config, in *models.EvaluationInput, regimeOverride string) (models.Evaluation, error) {
	if err := xhttp.ValidateStruct(in); err != nil {
		return models.Evaluation{}, fmt.Errorf("invalid input: %w", err)
	}
	ev, _, err := offlineEvaluator(cfg, regimeOverride)
	if err != nil {
		return models.Evaluation{}, err
	}
	return ev.Evaluate(in), nil
}

// offlineEvaluator builds an evaluator over a fresh kill switch so offline
// runs never see or touch the live account state.
func offlineEvaluator(cfg *config.Config, regimeOverride string) (*evaluator.Evaluator, *risk.GlobalState, error) {
	engine, err := di.ProvideFusionEngine(di.ProvideFusionConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	initial := cfg.Regime.Initial
	if regimeOverride != "" {
		initial = regimeOverride
	}
	r, err := models.ParseRegime(initial)
	if err != nil {
		return nil, nil, err
	}
	limits := risk.Limits{
		MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
		MaxDrawdown:          cfg.Risk.MaxDrawdown,
	}
	if err := limits.Validate(); err != nil {
		return nil, nil, fmt.Errorf("risk limits: %w", err)
	}
	rs := risk.NewGlobalState(limits, nil)
	return evaluator.New(engine, di.ProvideThresholds(cfg), rs, regime.NewState(r)), rs, nil
}

func readInput(stdin io.Reader, path string) (*models.EvaluationInput, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	in := &models.EvaluationInput{}
	if err := json.NewDecoder(r).Decode(in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

// configPathIfExists lets replay run with built-in defaults when the default
// config file is absent.
func configPathIfExists(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
