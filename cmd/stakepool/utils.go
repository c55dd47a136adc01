// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
)

func initLogger(lvl int, jsonLogs bool) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(lvl))

	output := io.Writer(os.Stderr)
	var handler slog.Handler
	if jsonLogs || !(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		handler = log.JSONHandlerWithLevel(output, &level)
	} else {
		handler = log.LogfmtHandlerWithLevel(output, &level)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("invalid value %d, must be at most %d", val, math.MaxInt)
	}
	return int(val), nil
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func openMainDB(ctx *cli.Context, dataDir string) (*lvldb.LevelDB, error) {
	cacheMB, err := readIntFromUInt64Flag(ctx.Uint64(cacheFlag.Name))
	if err != nil {
		return nil, errors.Wrap(err, cacheFlag.Name)
	}
	cacheMB = normalizeCacheSize(cacheMB)
	logger.Debug("cache size(MB)", "size", cacheMB)

	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openEventLog(dataDir string) (*eventlog.EventLog, error) {
	path := filepath.Join(dataDir, "events.db")
	db, err := eventlog.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event log [%v]", path)
	}
	return db, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// clockChecker queries an NTP server and reports the offset of the local clock.
type clockChecker struct {
	server    string
	tolerance time.Duration
	query     func(server string) (time.Duration, error)
	report    func(offset time.Duration)
}

func newClockChecker(server string, tolerance time.Duration, report func(time.Duration)) *clockChecker {
	return &clockChecker{
		server:    server,
		tolerance: tolerance,
		query: func(server string) (time.Duration, error) {
			resp, err := ntp.Query(server)
			if err != nil {
				return 0, err
			}
			return resp.ClockOffset, nil
		},
		report: report,
	}
}

func (c *clockChecker) check() {
	offset, err := c.query(c.server)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	c.report(offset)
	if offset.Abs() > c.tolerance {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(offset))
	}
}

func (c *clockChecker) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.check()
		}
	}
}

func printStartupMessage(dataDir, apiURL, metricsURL, adminURL string, dayLength time.Duration, today uint64) {
	orNone := func(s string) string {
		if s == "" {
			return "Disabled"
		}
		return s
	}
	fmt.Printf(`Starting %v
    Data dir     [ %v ]
    Day length   [ %v ]
    Today        [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		common.MakeName("Stakepool", fullVersion()),
		dataDir,
		dayLength,
		today,
		apiURL,
		orNone(metricsURL),
		orNone(adminURL),
	)
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakepool")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakepool")
		} else {
			return filepath.Join(home, ".org.vechain.stakepool")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
