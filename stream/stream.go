// Package stream is a second presentation transport for the core
// pipeline: it serves the current cumulative view over plain HTTP and
// fans out each published Tick as JSON over a WebSocket, so a
// browser-based presentation collaborator can consume the same Tick
// contract (spec §6) the terminal dashboard does.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/ticker"
	"github.com/netsentryhq/netsentry/trafficstate"
)

// clientQueueSize bounds how many unwritten ticks a single WebSocket
// client may have queued; per spec §5's backpressure rule, a client
// slower than the ticker has its oldest queued tick dropped rather than
// stalling the broadcaster.
const clientQueueSize = 8

// Server owns the HTTP/WebSocket surface and the cumulative snapshot it
// serves over plain GET.
type Server struct {
	addr   string
	router *mux.Router
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	cumulative *trafficstate.InfoTraffic

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	queue chan []byte
	done  chan struct{}
}

// New builds a Server listening on addr (e.g. "127.0.0.1:8787") once
// ListenAndServe is called.
func New(addr string) *Server {
	s := &Server{
		addr:       addr,
		cumulative: trafficstate.New(),
		clients:    make(map[*client]struct{}),
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	s.router = mux.NewRouter().StrictSlash(true)
	s.router.HandleFunc("/snapshot", s.serveSnapshot).Methods("GET")
	s.router.HandleFunc("/ws", s.serveWS).Methods("GET")
	return s
}

// Handler returns the root http.Handler, for use with httptest.Server or
// a custom listener in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks, serving HTTP on addr, mirroring the teacher's
// daemon.Run listen idiom.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	wt := toWireTick(0, s.cumulative, nil, false)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(wt); err != nil {
		log.Printf("stream: encoding snapshot response: %v", err)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, queue: make(chan []byte, clientQueueSize), done: make(chan struct{})}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	go s.writeLoop(c)
	go s.readLoop(c) // only to detect client-initiated close
}

// readLoop's sole purpose is to notice when the client disconnects;
// it discards anything the client sends.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for {
		select {
		case msg, ok := <-c.queue:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.done)
	}
}

// HandleTick is the Engine's OnTick callback: it folds the tick's delta
// into the server's cumulative snapshot (served by GET /snapshot) and
// broadcasts the raw delta tick, as wire JSON, to every connected
// WebSocket client.
func (s *Server) HandleTick(tick ticker.Tick, events []notify.Event) {
	s.mu.Lock()
	s.cumulative.Refresh(cloneDelta(tick.Delta))
	s.mu.Unlock()

	wt := toWireTick(tick.CaptureID, tick.Delta, tick.HostBatch, tick.OfflineFinished)
	payload, err := json.Marshal(wt)
	if err != nil {
		log.Printf("stream: marshaling tick: %v", err)
		return
	}
	s.broadcast(payload)
}

// cloneDelta is needed because InfoTraffic.Refresh mutates its argument's
// LastPacketTimestamp in a narrow tie-breaking case; the broadcast path
// must publish the delta exactly as the ticker produced it.
func cloneDelta(delta *trafficstate.InfoTraffic) *trafficstate.InfoTraffic {
	cp := *delta
	return &cp
}

func (s *Server) broadcast(payload []byte) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.queue <- payload:
		default:
			// Client's queue is full: drop the oldest queued message and
			// enqueue this one, per spec §5's backpressure rule.
			select {
			case <-c.queue:
			default:
			}
			select {
			case c.queue <- payload:
			default:
			}
		}
	}
}

type wireHost struct {
	Address string `json:"address"`
	RDNS    string `json:"rdns,omitempty"`
	Domain  string `json:"domain"`
	ASN     string `json:"asn,omitempty"`
	Country string `json:"country"`
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
}

type wireFlow struct {
	Key       string `json:"key"`
	Transport string `json:"transport"`
	Direction string `json:"direction"`
	Service   string `json:"service"`
	Packets   uint64 `json:"packets"`
	Bytes     uint64 `json:"bytes"`
}

// wireTick is the JSON rendering of ticker.Tick: spec §6 names
// info_delta as the whole InfoTraffic, but FlowKey/Host are structs (not
// valid JSON map keys), so each map is flattened into a sorted slice of
// wire-friendly rows.
type wireTick struct {
	CaptureID       uint64     `json:"capture_id"`
	AllPackets      uint64     `json:"all_packets"`
	AllBytes        uint64     `json:"all_bytes"`
	DroppedPackets  uint32     `json:"dropped_packets"`
	Flows           []wireFlow `json:"flows"`
	Hosts           []wireHost `json:"hosts"`
	OfflineFinished bool       `json:"offline_finished"`
}

func toWireTick(captureID uint64, delta *trafficstate.InfoTraffic, batch []trafficstate.HostMessage, offlineFinished bool) wireTick {
	wt := wireTick{
		CaptureID:       captureID,
		OfflineFinished: offlineFinished,
	}
	if delta != nil {
		wt.AllPackets = delta.AllPackets
		wt.AllBytes = delta.AllBytes
		wt.DroppedPackets = delta.DroppedPackets
		for key, rec := range delta.Flows {
			wt.Flows = append(wt.Flows, wireFlow{
				Key:       key.String(),
				Transport: key.Transport.String(),
				Direction: rec.Direction.String(),
				Service:   rec.Service.String(),
				Packets:   rec.Data.TotPackets(),
				Bytes:     rec.Data.TotBytes(),
			})
		}
		for h, rec := range delta.Hosts {
			wt.Hosts = append(wt.Hosts, wireHost{
				Address: h.Domain,
				Domain:  h.Domain,
				ASN:     h.ASN.Name,
				Country: h.Country,
				Packets: rec.Data.TotPackets(),
				Bytes:   rec.Data.TotBytes(),
			})
		}
	}
	for _, msg := range batch {
		wt.Hosts = append(wt.Hosts, wireHost{
			Address: msg.Address.String(),
			RDNS:    msg.RDNS,
			Domain:  msg.Host.Domain,
			ASN:     msg.Host.ASN.Name,
			Country: msg.Host.Country,
			Packets: msg.Data.TotPackets(),
			Bytes:   msg.Data.TotBytes(),
		})
	}

	sort.Slice(wt.Flows, func(i, j int) bool { return wt.Flows[i].Bytes > wt.Flows[j].Bytes })
	sort.Slice(wt.Hosts, func(i, j int) bool { return wt.Hosts[i].Bytes > wt.Hosts[j].Bytes })
	return wt
}
