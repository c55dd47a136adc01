// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/staking"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/thor"
)

// Config lists what a fresh data dir starts with.
type Config struct {
	Accounts  []AccountConfig  `yaml:"accounts"`
	Campaigns []CampaignConfig `yaml:"campaigns"`
}

// AccountConfig funds an account in the dev custody.
type AccountConfig struct {
	Asset  string `yaml:"asset"`
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

// CampaignConfig creates a campaign, funded by its owner.
type CampaignConfig struct {
	Owner        string    `yaml:"owner"`
	Asset        string    `yaml:"asset"`
	Start        time.Time `yaml:"start"`
	Days         uint64    `yaml:"days"`
	MinStakeSize uint64    `yaml:"min_stake_size"`
	ShareMode    string    `yaml:"share_mode"`
	Budget       uint64    `yaml:"budget"`
}

// LoadConfig reads a YAML config. An empty path yields an empty config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every entry can be applied.
func (c *Config) Validate() error {
	for i, acc := range c.Accounts {
		if _, err := thor.ParseAddress(acc.Asset); err != nil {
			return errors.Wrapf(err, "accounts[%d].asset", i)
		}
		if _, err := thor.ParseAddress(acc.Owner); err != nil {
			return errors.Wrapf(err, "accounts[%d].owner", i)
		}
	}
	for i, cc := range c.Campaigns {
		if _, err := thor.ParseAddress(cc.Owner); err != nil {
			return errors.Wrapf(err, "campaigns[%d].owner", i)
		}
		if _, err := thor.ParseAddress(cc.Asset); err != nil {
			return errors.Wrapf(err, "campaigns[%d].asset", i)
		}
		if cc.Days == 0 {
			return errors.Errorf("campaigns[%d].days must be positive", i)
		}
		if _, ok := campaign.ParseShareMode(cc.ShareMode); !ok {
			return errors.Errorf("campaigns[%d].share_mode: unknown mode %q", i, cc.ShareMode)
		}
	}
	return nil
}

var (
	metaBucket = kv.Bucket("m")
	seededKey  = []byte("seeded")
)

type minter interface {
	Mint(asset, to thor.Address, amount uint64) error
}

// seed applies the config once per data dir. It returns the ids of the campaigns created.
func seed(cfg *Config, store kv.Store, staker *staking.Staker, custody minter) ([]thor.Address, error) {
	seeded, err := metaBucket.Has(store, seededKey)
	if err != nil {
		return nil, err
	}
	if seeded {
		return nil, nil
	}

	for _, acc := range cfg.Accounts {
		if err := custody.Mint(thor.MustParseAddress(acc.Asset), thor.MustParseAddress(acc.Owner), acc.Amount); err != nil {
			return nil, errors.Wrapf(err, "fund %v", acc.Owner)
		}
	}

	cal := staker.Calendar()
	var ids []thor.Address
	for _, cc := range cfg.Campaigns {
		owner := thor.MustParseAddress(cc.Owner)
		mode, _ := campaign.ParseShareMode(cc.ShareMode)
		startDay := cal.Day(cc.Start)

		id, err := staker.CreateCampaign(
			owner,
			thor.MustParseAddress(cc.Asset),
			cal.Start(startDay),
			cal.Start(startDay+cc.Days),
			cc.MinStakeSize,
			mode,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "create campaign of %v", owner)
		}
		if cc.Budget > 0 {
			if err := staker.AddBudget(id, owner, cc.Budget); err != nil {
				return nil, errors.Wrapf(err, "fund campaign %v", id)
			}
		}
		ids = append(ids, id)
	}
	return ids, metaBucket.Put(store, seededKey, []byte{1})
}
