package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/domain-race-backend/internal/engine"
	"github.com/DoyleJ11/domain-race-backend/internal/lobby"
)

// IdleThreshold is how long a room may go without activity before it is reaped.
const IdleThreshold = 10 * time.Minute

// OutboxSize is the per-connection frame buffer; a client that falls this far
// behind is dropped.
const OutboxSize = 32

var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby registers a new connection in the room, creating the room on
// first use.
type EnsureLobby struct {
	Code  string
	Name  string
	Reply chan registered
}

type RemoveConn struct {
	ConnID string
	Reply  chan *lobby.Lobby
}

type GenerateRoomCode struct {
	Reply chan codeReply
}

type ReapIdle struct {
	Now   time.Time
	Reply chan []string
}

type ListLobbies struct {
	Reply chan []*lobby.Lobby
}

type GetStats struct {
	Reply chan Stats
}

type ShutdownHub struct{}

func (GetLobby) isHubMsg()         {}
func (EnsureLobby) isHubMsg()      {}
func (RemoveConn) isHubMsg()       {}
func (GenerateRoomCode) isHubMsg() {}
func (ReapIdle) isHubMsg()         {}
func (ListLobbies) isHubMsg()      {}
func (GetStats) isHubMsg()         {}
func (ShutdownHub) isHubMsg()      {}

type registered struct {
	connID string
	lobby  *lobby.Lobby
}

type codeReply struct {
	code string
	err  error
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Session is what a transport holds for one live connection.
type Session struct {
	ConnID string
	Code   string
	Player engine.Player
	Lobby  *lobby.Lobby
	Outbox <-chan []byte
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	conns   map[string]string // connID -> room code
	opts    lobby.Options
	clock   engine.Clock
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		conns:   make(map[string]string),
		opts:    opts,
		clock:   opts.Clock,
		logger:  opts.Logger.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				lb := h.lobbies[msg.Code]
				if lb == nil {
					lb = lobby.NewLobby(h.ctx, engine.NewEmptyState(msg.Code), h.opts)
					h.lobbies[msg.Code] = lb
					h.logger.Info("room created", zap.String("room", msg.Code))
				}
				id := fmt.Sprintf("%s_%s_%s", msg.Code, msg.Name, uuid.NewString())
				h.conns[id] = msg.Code
				msg.Reply <- registered{connID: id, lobby: lb}

			case RemoveConn:
				code, ok := h.conns[msg.ConnID]
				delete(h.conns, msg.ConnID)
				if !ok {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.lobbies[code] // nil if the room was reaped

			case GenerateRoomCode:
				msg.Reply <- h.freshCode()

			case ReapIdle:
				msg.Reply <- h.reap(msg.Now)

			case ListLobbies:
				out := make([]*lobby.Lobby, 0, len(h.lobbies))
				for _, lb := range h.lobbies {
					out = append(out, lb)
				}
				msg.Reply <- out

			case GetStats:
				msg.Reply <- Stats{Rooms: len(h.lobbies), Connections: len(h.conns)}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) freshCode() codeReply {
	for {
		c, err := GenerateCode()
		if err != nil {
			return codeReply{err: fmt.Errorf("generate room code: %w", err)}
		}
		if h.lobbies[c] == nil {
			return codeReply{code: c}
		}
		h.logger.Debug("collision on code, regenerating", zap.String("room", c))
	}
}

func (h *Hub) reap(now time.Time) []string {
	var reaped []string
	for code, lb := range h.lobbies {
		if now.Sub(lb.LastActivity()) <= IdleThreshold {
			continue
		}
		lb.Close()
		delete(h.lobbies, code)
		reaped = append(reaped, code)
	}
	if len(reaped) == 0 {
		return nil
	}

	gone := make(map[string]bool, len(reaped))
	for _, code := range reaped {
		gone[code] = true
	}
	for id, code := range h.conns {
		if gone[code] {
			delete(h.conns, id)
		}
	}
	return reaped
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Close()
	}
	clear(h.lobbies)
	clear(h.conns)
	h.cancel()
}

// GenerateRoomCode returns a code no live room is using.
func (h *Hub) GenerateRoomCode() (string, error) {
	reply := make(chan codeReply, 1)
	if err := h.send(GenerateRoomCode{Reply: reply}); err != nil {
		return "", err
	}
	r, err := await(h, reply)
	if err != nil {
		return "", err
	}
	return r.code, r.err
}

// Connect joins name to the room at code, creating the room if needed.
func (h *Hub) Connect(code, name string) (Session, error) {
	reply := make(chan registered, 1)
	if err := h.send(EnsureLobby{Code: code, Name: name, Reply: reply}); err != nil {
		return Session{}, err
	}
	reg, err := await(h, reply)
	if err != nil {
		return Session{}, err
	}

	out := make(chan []byte, OutboxSize)
	p, err := reg.lobby.Join(reg.connID, name, out)
	if err != nil {
		// room was reaped between registration and join
		h.Disconnect(reg.connID)
		return Session{}, err
	}

	h.logger.Info("player connected",
		zap.String("room", code), zap.String("conn", reg.connID), zap.String("color", p.Color))
	return Session{ConnID: reg.connID, Code: code, Player: p, Lobby: reg.lobby, Outbox: out}, nil
}

// Disconnect is idempotent; unknown ids are ignored.
func (h *Hub) Disconnect(connID string) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(RemoveConn{ConnID: connID, Reply: reply}); err != nil {
		return
	}
	lb, err := await(h, reply)
	if err != nil || lb == nil {
		return
	}
	if err := lb.Leave(connID); err != nil && !errors.Is(err, engine.ErrRoomNotFound) {
		h.logger.Warn("leave failed", zap.String("conn", connID), zap.Error(err))
		return
	}
	h.logger.Info("player disconnected", zap.String("room", lb.Code()), zap.String("conn", connID))
}

func (h *Hub) GetRoom(code string) (*lobby.Lobby, bool) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(GetLobby{Code: code, Reply: reply}); err != nil {
		return nil, false
	}
	lb, err := await(h, reply)
	return lb, err == nil && lb != nil
}

// ReapIdleRooms closes every room idle for longer than IdleThreshold and
// returns their codes.
func (h *Hub) ReapIdleRooms(now time.Time) []string {
	reply := make(chan []string, 1)
	if err := h.send(ReapIdle{Now: now, Reply: reply}); err != nil {
		return nil
	}
	codes, _ := await(h, reply)
	for _, code := range codes {
		h.logger.Info("idle room reaped", zap.String("room", code))
	}
	return codes
}

// Tick runs the round-over check in every room and reports how many rounds
// ended.
func (h *Hub) Tick(now time.Time) (int, error) {
	reply := make(chan []*lobby.Lobby, 1)
	if err := h.send(ListLobbies{Reply: reply}); err != nil {
		return 0, err
	}
	lobbies, err := await(h, reply)
	if err != nil {
		return 0, err
	}

	ended := make([]bool, len(lobbies))
	var g errgroup.Group
	g.SetLimit(16)
	for i, lb := range lobbies {
		g.Go(func() error {
			over, err := lb.Tick(now)
			if errors.Is(err, engine.ErrRoomNotFound) {
				return nil
			}
			ended[i] = over
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0
	for _, over := range ended {
		if over {
			n++
		}
	}
	return n, nil
}

// Broadcast pushes payload to every connection in the room.
func (h *Hub) Broadcast(code string, payload []byte) error {
	lb, ok := h.GetRoom(code)
	if !ok {
		return engine.ErrRoomNotFound
	}
	return lb.Broadcast(payload)
}

func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	if err := h.send(GetStats{Reply: reply}); err != nil {
		return Stats{}
	}
	s, _ := await(h, reply)
	return s
}

// Run drives the round timer and the idle reaper until ctx is done.
func (h *Hub) Run(ctx context.Context, tickEvery, reapEvery time.Duration) error {
	tick := time.NewTicker(tickEvery)
	defer tick.Stop()
	reap := time.NewTicker(reapEvery)
	defer reap.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.ctx.Done():
			return nil
		case <-tick.C:
			if _, err := h.Tick(h.clock()); err != nil && !errors.Is(err, ErrHubClosed) {
				h.logger.Error("tick failed", zap.Error(err))
			}
		case <-reap.C:
			h.ReapIdleRooms(h.clock())
		}
	}
}

func (h *Hub) Close() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
	<-h.ctx.Done()
}

func (h *Hub) send(m HubMsg) error {
	select {
	case <-h.ctx.Done():
		return ErrHubClosed
	default:
	}
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

func await[T any](h *Hub, reply <-chan T) (T, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		select {
		case v := <-reply:
			return v, nil
		default:
			var zero T
			return zero, ErrHubClosed
		}
	}
}
