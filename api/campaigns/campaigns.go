// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaigns

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/staking"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/thor"
)

type Campaigns struct {
	staker *staking.Staker
}

func New(staker *staking.Staker) *Campaigns {
	return &Campaigns{staker}
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func parseAmount(amount *math.HexOrDecimal64) (uint64, error) {
	if amount == nil {
		return 0, utils.BadRequest(errors.New("amount: required"))
	}
	return uint64(*amount), nil
}

func (c *Campaigns) handleCreateCampaign(w http.ResponseWriter, req *http.Request) error {
	var body CreateCampaign
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	mode, ok := campaign.ParseShareMode(body.ShareMode)
	if !ok {
		return utils.BadRequest(errors.Errorf("shareMode: unknown mode %q", body.ShareMode))
	}
	var minStakeSize uint64
	if body.MinStakeSize != nil {
		minStakeSize = uint64(*body.MinStakeSize)
	}
	id, err := c.staker.CreateCampaign(
		body.Owner,
		body.Asset,
		time.Unix(int64(body.Start), 0),
		time.Unix(int64(body.End), 0),
		minStakeSize,
		mode,
	)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Created{ID: id})
}

func (c *Campaigns) handleGetCampaigns(w http.ResponseWriter, _ *http.Request) error {
	all, err := c.staker.Campaigns()
	if err != nil {
		return err
	}
	result := make([]*Campaign, 0, len(all))
	for _, cmp := range all {
		result = append(result, convertCampaign(cmp))
	}
	return utils.WriteJSON(w, result)
}

func (c *Campaigns) writeCampaign(w http.ResponseWriter, id thor.Address) error {
	cmp, err := c.staker.Campaign(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertCampaign(cmp))
}

func (c *Campaigns) handleGetCampaign(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	return c.writeCampaign(w, id)
}

func (c *Campaigns) handleGetDay(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	day, err := strconv.ParseUint(mux.Vars(req)["day"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "day"))
	}
	d, err := c.staker.DayRecord(id, day)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Day{
		Day:     day,
		Rate:    math.HexOrDecimal64(d.Rate),
		Staked:  math.HexOrDecimal64(d.Staked),
		Boosted: math.HexOrDecimal64(d.Boosted),
	})
}

func (c *Campaigns) handleGetRate(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	today := c.staker.Today()
	rate, err := c.staker.PreviewDailyRate(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Rate{Day: today, Rate: math.HexOrDecimal64(rate)})
}

func (c *Campaigns) handleAddBudget(w http.ResponseWriter, req *http.Request) error {
	return c.ownerOp(w, req, c.staker.AddBudget)
}

func (c *Campaigns) handleRedeem(w http.ResponseWriter, req *http.Request) error {
	return c.ownerOp(w, req, c.staker.RedeemUnspent)
}

func (c *Campaigns) ownerOp(w http.ResponseWriter, req *http.Request, op func(id, caller thor.Address, amount uint64) error) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	var body Amount
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		return err
	}
	if err := op(id, body.Caller, amount); err != nil {
		return err
	}
	return c.writeCampaign(w, id)
}

func (c *Campaigns) handleClose(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	var body Caller
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := c.staker.CloseCampaign(id, body.Caller); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (c *Campaigns) handleGetParticipants(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	ps, err := c.staker.Participants(id)
	if err != nil {
		return err
	}
	today := c.staker.Today()
	result := make([]*Participant, 0, len(ps))
	for _, p := range ps {
		result = append(result, convertParticipant(p, today))
	}
	return utils.WriteJSON(w, result)
}

func (c *Campaigns) writeParticipant(w http.ResponseWriter, id, owner thor.Address) error {
	today := c.staker.Today()
	p, err := c.staker.Participant(id, owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertParticipant(p, today))
}

func (c *Campaigns) handleGetParticipant(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return err
	}
	return c.writeParticipant(w, id, owner)
}

// participantOp runs an operation of the participant named in the path. The body
// carries the amount of operations that take one.
func (c *Campaigns) participantOp(withAmount bool, op func(id, caller thor.Address, amount uint64) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		id, err := parseAddress(req, "id")
		if err != nil {
			return err
		}
		owner, err := parseAddress(req, "owner")
		if err != nil {
			return err
		}
		var amount uint64
		if withAmount {
			var body struct {
				Amount *math.HexOrDecimal64 `json:"amount"`
			}
			if err := utils.ParseJSON(req.Body, &body); err != nil {
				return utils.BadRequest(errors.WithMessage(err, "body"))
			}
			if amount, err = parseAmount(body.Amount); err != nil {
				return err
			}
		}
		if err := op(id, owner, amount); err != nil {
			return err
		}
		return c.writeParticipant(w, id, owner)
	}
}

func (c *Campaigns) handleCloseParticipant(w http.ResponseWriter, req *http.Request) error {
	id, err := parseAddress(req, "id")
	if err != nil {
		return err
	}
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return err
	}
	if err := c.staker.CloseParticipant(id, owner); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (c *Campaigns) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /campaigns").
		HandlerFunc(utils.WrapHandlerFunc(c.handleCreateCampaign))
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /campaigns").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetCampaigns))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /campaigns/{id}").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetCampaign))
	sub.Path("/{id}/days/{day}").
		Methods(http.MethodGet).
		Name("GET /campaigns/{id}/days/{day}").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetDay))
	sub.Path("/{id}/rate").
		Methods(http.MethodGet).
		Name("GET /campaigns/{id}/rate").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetRate))
	sub.Path("/{id}/budget").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/budget").
		HandlerFunc(utils.WrapHandlerFunc(c.handleAddBudget))
	sub.Path("/{id}/redeem").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/redeem").
		HandlerFunc(utils.WrapHandlerFunc(c.handleRedeem))
	sub.Path("/{id}/close").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/close").
		HandlerFunc(utils.WrapHandlerFunc(c.handleClose))

	sub.Path("/{id}/participants").
		Methods(http.MethodGet).
		Name("GET /campaigns/{id}/participants").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetParticipants))
	sub.Path("/{id}/participants/{owner}").
		Methods(http.MethodGet).
		Name("GET /campaigns/{id}/participants/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetParticipant))
	sub.Path("/{id}/participants/{owner}/stake").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/stake").
		HandlerFunc(utils.WrapHandlerFunc(c.participantOp(true, c.staker.Stake)))
	sub.Path("/{id}/participants/{owner}/boost").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/boost").
		HandlerFunc(utils.WrapHandlerFunc(c.participantOp(false, func(id, caller thor.Address, _ uint64) error {
			return c.staker.Boost(id, caller)
		})))
	sub.Path("/{id}/participants/{owner}/cancel").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/cancel").
		HandlerFunc(utils.WrapHandlerFunc(c.participantOp(false, func(id, caller thor.Address, _ uint64) error {
			return c.staker.Cancel(id, caller)
		})))
	sub.Path("/{id}/participants/{owner}/claim").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/claim").
		HandlerFunc(utils.WrapHandlerFunc(c.participantOp(true, c.staker.Claim)))
	sub.Path("/{id}/participants/{owner}/transfer").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/transfer").
		HandlerFunc(utils.WrapHandlerFunc(c.participantOp(true, c.staker.TransferAccruedToPending)))
	sub.Path("/{id}/participants/{owner}/close").
		Methods(http.MethodPost).
		Name("POST /campaigns/{id}/participants/{owner}/close").
		HandlerFunc(utils.WrapHandlerFunc(c.handleCloseParticipant))
}
