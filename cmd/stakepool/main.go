// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/api/admin/health"
	"github.com/vechain/stakepool/cmd/stakepool/httpserver"
	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/staking"
	"github.com/vechain/stakepool/staking/clock"
	"github.com/vechain/stakepool/thor"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")

	metricToday = metrics.LazyLoadGauge("clock_today")
)

const clockCheckInterval = 10 * time.Minute

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Stakepool",
		Usage:     "Day-based staking reward campaigns",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			persistFlag,
			dayLengthFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			skipEventsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			ntpServerFlag,
			maxClockOffsetFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "verify",
				Usage: "cross-check every stored campaign against its ledgers and escrow",
				Flags: []cli.Flag{
					dataDirFlag,
					dayLengthFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: verifyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mintableCustody is a custody able to fund dev accounts.
type mintableCustody interface {
	custody.Custody
	minter
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	defer func() { logger.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	logLevel := initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	// enable metrics as soon as possible
	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return fmt.Errorf("unable to start metrics server - %w", err)
		}
		metricsURL = url
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
	}

	cfg, err := LoadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	calendar := clock.NewCalendar(ctx.Duration(dayLengthFlag.Name))

	var (
		mainDB   *lvldb.LevelDB
		eventLog *eventlog.EventLog
		cust     mintableCustody
		dataDir  string
	)
	if ctx.Bool(persistFlag.Name) {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		if mainDB, err = openMainDB(ctx, dataDir); err != nil {
			return err
		}
		if !ctx.Bool(skipEventsFlag.Name) {
			if eventLog, err = openEventLog(dataDir); err != nil {
				mainDB.Close()
				return err
			}
		}
		cust = custody.NewVault(mainDB)
	} else {
		dataDir = "Memory"
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if !ctx.Bool(skipEventsFlag.Name) {
			if eventLog, err = eventlog.NewMem(); err != nil {
				mainDB.Close()
				return err
			}
		}
		cust = custody.NewLedger()
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	if eventLog != nil {
		defer func() { logger.Info("closing event log..."); eventLog.Close() }()
	}

	staker := staking.New(mainDB, cust, clock.System{}, calendar, eventLog)
	defer staker.Close()

	ids, err := seed(cfg, mainDB, staker, cust)
	if err != nil {
		return errors.Wrap(err, "apply config")
	}
	for _, id := range ids {
		logger.Info("campaign created from config", "id", id)
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiHandler, apiCloser := api.New(staker, eventLog, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
	})
	defer func() { logger.Info("closing API..."); apiCloser() }()

	apiURL, srvCloser, err := httpserver.StartAPIServer(
		ctx.String(apiAddrFlag.Name),
		apiHandler,
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	tolerance := ctx.Duration(maxClockOffsetFlag.Name)
	if tolerance == 0 {
		tolerance = calendar.DayLength / 1000
	}
	healthStatus := health.New(staker.Today, tolerance)

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := httpserver.StartAdminServer(
			ctx.String(adminAddrFlag.Name),
			logLevel,
			apiLogs,
			healthStatus,
		)
		if err != nil {
			return fmt.Errorf("unable to start admin server - %w", err)
		}
		adminURL = url
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
	}

	printStartupMessage(dataDir, apiURL, metricsURL, adminURL, calendar.DayLength, staker.Today())

	g, gctx := errgroup.WithContext(exitSignal)
	if server := ctx.String(ntpServerFlag.Name); server != "" {
		checker := newClockChecker(server, tolerance, healthStatus.ClockOffset)
		g.Go(func() error { return checker.run(gctx, clockCheckInterval) })
	}
	g.Go(func() error { return watchDays(gctx, staker) })
	return g.Wait()
}

// watchDays logs every day boundary the process lives through.
func watchDays(ctx context.Context, staker *staking.Staker) error {
	cal := staker.Calendar()
	today := staker.Today()
	metricToday().Set(int64(today))

	for {
		wait := time.Until(cal.Start(today + 1))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
			today = staker.Today()
			metricToday().Set(int64(today))
			logger.Info("new day", "day", today)
		}
	}
}

func verifyAction(ctx *cli.Context) error {
	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	mainDB, err := openMainDB(ctx, dataDir)
	if err != nil {
		return err
	}
	defer mainDB.Close()

	vault := custody.NewVault(mainDB)
	staker := staking.New(mainDB, vault, clock.System{}, clock.NewCalendar(ctx.Duration(dayLengthFlag.Name)), nil)
	defer staker.Close()

	fmt.Printf(">> Verifying %v <<\n", filepath.Join(dataDir, "main.db"))
	return verifyCampaigns(staker, vault)
}

type balanceReader interface {
	BalanceOf(asset, owner thor.Address) (uint64, error)
}

func verifyCampaigns(staker *staking.Staker, balances balanceReader) error {
	campaigns, err := staker.Campaigns()
	if err != nil {
		return err
	}

	bar := pb.New(len(campaigns)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	var failed int
	for _, c := range campaigns {
		a, err := staker.Audit(c.ID)
		if err == nil {
			var escrow uint64
			if escrow, err = balances.BalanceOf(c.Asset, c.ID); err == nil && escrow < a.Liabilities {
				err = errors.Errorf("escrow holds %d, owes %d", escrow, a.Liabilities)
			}
		}
		if err != nil {
			failed++
			logger.Error("campaign verification failed", "id", c.ID, "err", err)
		}
		bar.Increment()
	}
	bar.Finish()

	if failed > 0 {
		return errors.Errorf("%d of %d campaigns failed verification", failed, len(campaigns))
	}
	fmt.Printf("%d campaigns verified\n", len(campaigns))
	return nil
}
