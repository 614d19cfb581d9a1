// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/stakevault/api/utils"
	"github.com/vechain/stakevault/common"
	"github.com/vechain/stakevault/eventdb"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	readLimit  = 1000
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod * 2
	writeWait  = 10 * time.Second
)

type Subscriptions struct {
	rt       *runtime.Runtime
	db       *eventdb.EventDB
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the subscriptions service. Origins are checked against allowedOrigins,
// where "*" allows any.
func New(rt *runtime.Runtime, db *eventdb.EventDB, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		rt: rt,
		db: db,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, u.Host) || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
		done: make(chan struct{}),
	}
}

func parseCriteria(req *http.Request) ([]*eventdb.Criteria, error) {
	query := req.URL.Query()
	var criteria eventdb.Criteria
	if s := query.Get("contract"); s != "" {
		addr, err := common.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "contract"))
		}
		criteria.Contract = &addr
	}
	if s := query.Get("type"); s != "" {
		criteria.Type = &s
	}
	if criteria.Contract == nil && criteria.Type == nil {
		return nil, nil
	}
	return []*eventdb.Criteria{&criteria}, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	criteria, err := parseCriteria(req)
	if err != nil {
		return err
	}
	pos, err := utils.Uint64Query(req, "pos")
	if err != nil {
		return err
	}
	if pos == nil {
		head, err := s.rt.Head()
		if err != nil {
			return err
		}
		next := head.Number + 1
		pos = &next
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has responded already
		logger.Debug("upgrade failed", "err", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()

	id := uuid.New()
	logger.Debug("subscribed", "id", id, "pos", *pos, "remote", req.RemoteAddr)
	err = s.pipe(conn, newEventReader(s.db, *pos, criteria, readLimit))
	logger.Debug("unsubscribed", "id", id, "err", err)
	return nil
}

// pipe writes events to the conn until the client leaves or the service closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader) error {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the read loop only handles control frames, and detects closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	waiter := s.rt.NewWaiter()
	for {
		events, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, ev := range events {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return err
			}
		}
		if len(events) == readLimit {
			continue
		}

	wait:
		for {
			select {
			case <-s.done:
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed"),
					time.Now().Add(writeWait))
				return nil
			case <-closed:
				return nil
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return err
				}
			case <-waiter.C():
				break wait
			}
		}
	}
}

// Close disconnects all subscribers and waits for them to leave.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
