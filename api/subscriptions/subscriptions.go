// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/eventlog"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/thor"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

var (
	logger                    = log.WithContext("pkg", "subscriptions")
	metricsActiveWebsocketCnt = metrics.LazyLoadGauge("api_active_websocket_count")
)

type Subscriptions struct {
	dispatcher *dispatcher
	upgrader   *websocket.Upgrader
	done       chan struct{}
	wg         sync.WaitGroup
}

func New(source eventSource, allowedOrigins []string) *Subscriptions {
	sub := &Subscriptions{
		dispatcher: newDispatcher(source),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		sub.dispatcher.DispatchLoop(sub.done)
	}()
	return sub
}

func parseFilter(req *http.Request) (*EventFilter, error) {
	var (
		filter EventFilter
		query  = req.URL.Query()
	)
	for _, name := range []string{"campaign", "account"} {
		s := query.Get(name)
		if s == "" {
			continue
		}
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, name)
		}
		if name == "campaign" {
			filter.Campaign = &addr
		} else {
			filter.Account = &addr
		}
	}
	if s := query.Get("kind"); s != "" {
		kind := eventlog.Kind(s)
		if !kind.Valid() {
			return nil, errors.Errorf("kind: unknown kind %q", s)
		}
		filter.Kind = &kind
	}
	return &filter, nil
}

func (s *Subscriptions) handleEventSub(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}

	conn, closed, err := s.setupConn(w, req)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	defer func() { s.closeConn(conn, err) }()

	ch := make(chan *eventlog.Event, 64)
	s.dispatcher.Subscribe(ch)
	defer s.dispatcher.Unsubscribe(ch)

	metricsActiveWebsocketCnt().Add(1)
	defer metricsActiveWebsocketCnt().Add(-1)

	err = s.pipe(conn, ch, filter, closed)
	return nil
}

func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	// start read loop to handle close event
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read err", "err", err)
				close(closed)
				break
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	var closeMsg []byte
	if err != nil {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}

	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		logger.Debug("write close message", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("close websocket", "err", err)
	}
}

func (s *Subscriptions) pipe(conn *websocket.Conn, ch <-chan *eventlog.Event, filter *EventFilter, closed <-chan struct{}) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case ev := <-ch:
			if !filter.Match(ev) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(convertEvent(ev)); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// Close stops the dispatcher and ends every open subscription.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleEventSub))
}
