// Command gridtrader replays a CSV bar history through one of the
// strategies on the paper executor and prints the annual returns.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/evdnx/gridtrader/audit"
	"github.com/evdnx/gridtrader/backtest"
	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/feed"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/strategy"
)

func main() {
	configPath := flag.String("config", "configs/gridtrader.yaml", "path to config file")
	name := flag.String("strategy", "grid", "strategy to run: grid, dma, donchian or turtle")
	flag.Parse()

	if err := run(*configPath, *name); err != nil {
		fmt.Fprintln(os.Stderr, "gridtrader:", err)
		os.Exit(1)
	}
}

func run(configPath, name string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return err
	}
	if cfg.Backtest.DataFile == "" {
		return errors.New("backtest.data_file is required")
	}

	log, err := logger.NewZapLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, err := openSink(ctx, cfg, name)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error("audit_close_failed", logger.Err(err))
		}
	}()

	exec := executor.NewPaperExecutor(executor.PaperConfig{
		StartCash:    cfg.Backtest.StartCash,
		Commission:   cfg.Backtest.Commission,
		Margin:       cfg.Backtest.Margin,
		SlippagePerc: cfg.Backtest.SlippagePerc,
	}, log)
	clock := &backtest.BarClock{}
	strat, err := newStrategy(name, cfg, exec, sink, log, clock)
	if err != nil {
		return err
	}

	opts, err := feed.OptionsFrom(cfg.Backtest)
	if err != nil {
		return err
	}
	bars, err := feed.LoadFile(cfg.Backtest.DataFile, opts)
	if err != nil {
		return err
	}
	log.Info("bars_loaded",
		logger.String("file", cfg.Backtest.DataFile),
		logger.Int("bars", len(bars)),
		logger.Time("first", bars[0].Time),
		logger.Time("last", bars[len(bars)-1].Time),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics_listening", logger.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var res backtest.Result
	g.Go(func() error {
		defer cancel()
		runner := &backtest.Runner{Exec: exec, Strategy: strat, Clock: clock, Log: log}
		var err error
		res, err = runner.Run(gctx, bars)
		if errors.Is(err, context.Canceled) {
			log.Warn("backtest_interrupted", logger.Int("bars", res.Bars))
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	report(res, cfg.Backtest.AnnualReturnFile)
	return nil
}

func openSink(ctx context.Context, cfg *config.Config, name string) (audit.Sink, error) {
	files, err := audit.NewFileSink(audit.FileOptions{
		LogFile:    cfg.Audit.LogFile,
		RecordFile: cfg.Audit.RecordFile,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Audit.PostgresDSN == "" {
		return files, nil
	}
	pg, err := audit.NewPostgresRecorder(ctx, cfg.Audit.PostgresDSN, name)
	if err != nil {
		_ = files.Close()
		return nil, fmt.Errorf("postgres recorder: %w", err)
	}
	return audit.MultiSink{files, pg}, nil
}

func newStrategy(name string, cfg *config.Config, exec executor.Executor,
	sink audit.Sink, log logger.Logger, clock strategy.Clock) (strategy.Strategy, error) {

	switch name {
	case "grid":
		return strategy.NewGridStrategy(cfg.Grid, exec, sink, log, clock)
	case "dma":
		return strategy.NewDualMovingAverage(cfg.DMA, exec, log)
	case "donchian":
		return strategy.NewDonchianChannels(cfg.Donchian, exec, log)
	case "turtle":
		return strategy.NewTurtle(cfg.Turtle, exec, log)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func report(res backtest.Result, annualFile string) {
	fmt.Println("--------------- AnnualReturn -----------------")
	for _, y := range res.AnnualReturns {
		fmt.Printf("%d: %.6f\n", y.Year, y.Return)
	}
	if annualFile != "" {
		if err := backtest.SaveAnnualReturns(annualFile, res.AnnualReturns); err != nil {
			fmt.Fprintln(os.Stderr, "gridtrader:", err)
		}
	}
	fmt.Printf("Final Portfolio Value: %.2f\n", res.FinalValue)
	fmt.Printf("Data length: %d\n", res.Bars)
}
