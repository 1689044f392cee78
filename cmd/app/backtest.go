package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"Sentinel/internal/di"
	"Sentinel/internal/domain/models"
	"Sentinel/internal/services/chip"
	"Sentinel/internal/usecase"
	"Sentinel/pkg/config"
)

var (
	btParams usecase.BacktestParams
	btRegime string
	btPretty bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Walk stored bars through the evaluator and tally the verdicts",
	Long: `Backtest evaluates every bar of the stored history with a sliding window,
opens a simulated trade on each go verdict and reports verdict counts,
forward returns and trade statistics. Trade results feed a fresh kill switch
at their exit bar, so loss streaks veto later signals as they would live.

Examples:
  sentinel backtest --code 600519
  sentinel backtest --code 000001 --index 000001.SH --horizon 10 --regime BEAR`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVar(&btParams.Code, "code", "", "instrument code")
	f.StringVar(&btParams.Index, "index", "", "market index code for the sync factor")
	f.IntVar(&btParams.Lookback, "lookback", 500, "bars loaded from storage")
	f.IntVar(&btParams.Window, "window", 60, "bars per evaluation")
	f.IntVar(&btParams.Horizon, "horizon", 20, "max bars held and forward-return span")
	f.Float64Var(&btParams.TakeProfit, "take-profit", 8, "take-profit percent")
	f.Float64Var(&btParams.StopLoss, "stop-loss", -5, "stop-loss percent")
	f.StringVar(&btRegime, "regime", "", "market regime override (BULL, BEAR, SHOCK)")
	f.BoolVar(&btPretty, "pretty", true, "indent output")
	_ = backtestCmd.MarkFlagRequired("code")
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathIfExists(configPath))
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	// stdout carries the report
	cfg.Logger.Output = "stderr"

	rep, err := backtest(cmd.Context(), cfg, btParams, btRegime)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if btPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rep)
}

func backtest(ctx context.Context, cfg *config.Config, p usecase.BacktestParams, regimeOverride string) (*models.BacktestReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	st, cleanup, err := di.ProvideStorage(cfg, l)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ev, rs, err := offlineEvaluator(cfg, regimeOverride)
	if err != nil {
		return nil, err
	}
	uc := usecase.NewBacktestUseCase(usecase.BacktestDeps{
		Reader:    st.Reader,
		Chips:     chip.NewProvider(nil, l), // official chips are not point-in-time
		Evaluator: ev,
		Risk:      rs,
		Logger:    l,
	}, cfg.Evaluate.FlowLookback)
	return uc.Run(ctx, p)
}
