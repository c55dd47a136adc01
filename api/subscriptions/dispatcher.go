// Copyright (c) 2023 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakepool/eventlog"
)

type eventSource interface {
	SubscribeEvents(ch chan<- *eventlog.Event) event.Subscription
}

// dispatcher drains the staker's event feed and fans each event out to the listeners.
type dispatcher struct {
	source    eventSource
	listeners map[chan *eventlog.Event]struct{}
	mu        sync.RWMutex
}

func newDispatcher(source eventSource) *dispatcher {
	return &dispatcher{
		source:    source,
		listeners: make(map[chan *eventlog.Event]struct{}),
	}
}

func (d *dispatcher) Subscribe(ch chan *eventlog.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[ch] = struct{}{}
}

func (d *dispatcher) Unsubscribe(ch chan *eventlog.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.listeners, ch)
}

func (d *dispatcher) DispatchLoop(done <-chan struct{}) {
	evCh := make(chan *eventlog.Event, 64)
	sub := d.source.SubscribeEvents(evCh)
	defer sub.Unsubscribe()

	for {
		select {
		case ev := <-evCh:
			d.mu.RLock()
			func() {
				for lsn := range d.listeners {
					select {
					case lsn <- ev:
					case <-done:
						return
					default: // a slow listener misses the event, the feed must not block operations
					}
				}
			}()
			d.mu.RUnlock()
		case <-sub.Err():
			return
		case <-done:
			return
		}
	}
}
