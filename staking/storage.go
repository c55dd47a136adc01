// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/cache"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/staking/campaign"
	"github.com/vechain/stakepool/staking/participant"
	"github.com/vechain/stakepool/staking/reverts"
	"github.com/vechain/stakepool/thor"
)

const (
	campaignBucket    = kv.Bucket("c")
	participantBucket = kv.Bucket("p") // campaign ++ owner
	nonceBucket       = kv.Bucket("n") // owner -> campaigns created
)

const campaignCacheSize = 256

// storage reads records from the store and caches campaigns. Every read hands out
// a private copy, so callers may mutate what they get.
type storage struct {
	store     kv.Store
	campaigns *cache.LRU[thor.Address, *campaign.Campaign]
}

func newStorage(store kv.Store) *storage {
	campaigns, _ := cache.NewLRU[thor.Address, *campaign.Campaign](campaignCacheSize)
	return &storage{
		store:     store,
		campaigns: campaigns,
	}
}

func participantKey(id, owner thor.Address) []byte {
	return append(append(make([]byte, 0, 2*thor.AddressLength), id.Bytes()...), owner.Bytes()...)
}

func (s *storage) getCampaign(id thor.Address) (*campaign.Campaign, error) {
	c, err := s.campaigns.GetOrLoad(id, func(id thor.Address) (*campaign.Campaign, error) {
		data, err := campaignBucket.Get(s.store, id.Bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, reverts.ErrCampaignNotFound
			}
			return nil, errors.Wrap(err, "failed to get campaign")
		}
		var c campaign.Campaign
		if err := rlp.DecodeBytes(data, &c); err != nil {
			return nil, errors.Wrap(err, "failed to decode campaign")
		}
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (s *storage) hasCampaign(id thor.Address) (bool, error) {
	if _, ok := s.campaigns.Get(id); ok {
		return true, nil
	}
	return campaignBucket.Has(s.store, id.Bytes())
}

// getParticipant returns the ledger of owner, or nil when there is none.
func (s *storage) getParticipant(id, owner thor.Address) (*participant.Participant, error) {
	data, err := participantBucket.Get(s.store, participantKey(id, owner))
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get participant")
	}
	var p participant.Participant
	if err := rlp.DecodeBytes(data, &p); err != nil {
		return nil, errors.Wrap(err, "failed to decode participant")
	}
	return &p, nil
}

func (s *storage) nonce(owner thor.Address) (uint64, error) {
	data, err := nonceBucket.Get(s.store, owner.Bytes())
	if err != nil {
		if s.store.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get nonce")
	}
	var nonce uint64
	if err := rlp.DecodeBytes(data, &nonce); err != nil {
		return 0, errors.Wrap(err, "failed to decode nonce")
	}
	return nonce, nil
}

// campaignIDs lists every stored campaign.
func (s *storage) campaignIDs() ([]thor.Address, error) {
	it := campaignBucket.Iterate(s.store, nil)
	defer it.Release()

	var ids []thor.Address
	for it.Next() {
		ids = append(ids, thor.BytesToAddress(it.Key()))
	}
	return ids, it.Error()
}

// participants lists the ledgers of a campaign.
func (s *storage) participants(id thor.Address) ([]*participant.Participant, error) {
	it := participantBucket.Iterate(s.store, id.Bytes())
	defer it.Release()

	var ps []*participant.Participant
	for it.Next() {
		var p participant.Participant
		if err := rlp.DecodeBytes(it.Value(), &p); err != nil {
			return nil, errors.Wrap(err, "failed to decode participant")
		}
		ps = append(ps, &p)
	}
	return ps, it.Error()
}

// newWriter starts an atomic write.
func (s *storage) newWriter() *writer {
	return &writer{storage: s, batch: s.store.NewBatch()}
}

// writer collects the records changed by one operation and writes them in a single batch.
type writer struct {
	*storage
	batch   kv.Batch
	dirty   map[thor.Address]*campaign.Campaign
	removed []thor.Address
}

func (w *writer) putCampaign(c *campaign.Campaign) error {
	data, err := rlp.EncodeToBytes(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode campaign")
	}
	if err := campaignBucket.Put(w.batch, c.ID.Bytes(), data); err != nil {
		return errors.Wrap(err, "failed to set campaign")
	}
	if w.dirty == nil {
		w.dirty = make(map[thor.Address]*campaign.Campaign)
	}
	w.dirty[c.ID] = c.Clone()
	return nil
}

func (w *writer) deleteCampaign(id thor.Address) error {
	if err := campaignBucket.Delete(w.batch, id.Bytes()); err != nil {
		return errors.Wrap(err, "failed to delete campaign")
	}
	delete(w.dirty, id)
	w.removed = append(w.removed, id)
	return nil
}

func (w *writer) putParticipant(p *participant.Participant) error {
	data, err := rlp.EncodeToBytes(p)
	if err != nil {
		return errors.Wrap(err, "failed to encode participant")
	}
	if err := participantBucket.Put(w.batch, participantKey(p.Campaign, p.Owner), data); err != nil {
		return errors.Wrap(err, "failed to set participant")
	}
	return nil
}

func (w *writer) deleteParticipant(p *participant.Participant) error {
	if err := participantBucket.Delete(w.batch, participantKey(p.Campaign, p.Owner)); err != nil {
		return errors.Wrap(err, "failed to delete participant")
	}
	return nil
}

func (w *writer) putNonce(owner thor.Address, nonce uint64) error {
	data, err := rlp.EncodeToBytes(nonce)
	if err != nil {
		return err
	}
	return nonceBucket.Put(w.batch, owner.Bytes(), data)
}

// commit writes the batch, then refreshes the cache. On failure neither changes.
func (w *writer) commit() error {
	if err := w.batch.Write(); err != nil {
		return errors.Wrap(err, "failed to write batch")
	}
	for id, c := range w.dirty {
		w.campaigns.Add(id, c)
	}
	for _, id := range w.removed {
		w.campaigns.Remove(id)
	}
	return nil
}
