package lobby

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/domain-race-backend/internal/engine"
	"github.com/DoyleJ11/domain-race-backend/internal/history"
	"github.com/DoyleJ11/domain-race-backend/internal/ranking"
	"github.com/DoyleJ11/domain-race-backend/internal/types"
)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error // optional
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Name     string
	Outbox   chan []byte // where this client wants to receive frames
	Reply    chan engine.Player
}

func (Join) isLobbyMsg() {}

type Leave struct {
	ClientID string
	Reply    chan struct{} // optional
}

func (Leave) isLobbyMsg() {}

// Tick forces the round-over check at Now.
type Tick struct {
	Now   time.Time
	Reply chan bool // optional; true when the round ended
}

func (Tick) isLobbyMsg() {}

type Broadcast struct {
	Payload []byte
}

func (Broadcast) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type timerFired struct{ Gen int }

func (timerFired) isLobbyMsg() {}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Options struct {
	Rankings engine.Ranker
	Clock    engine.Clock
	Logger   *zap.Logger
	Recorder history.Recorder
	// Intn picks a palette index; defaults to math/rand.
	Intn func(n int) int
}

type Lobby struct {
	code     string
	inbox    chan Msg
	state    engine.State
	version  int
	clients  map[string]chan []byte
	seq      int
	timer    *time.Timer
	timerGen int

	rankings engine.Ranker
	clock    engine.Clock
	logger   *zap.Logger
	recorder history.Recorder
	intn     func(n int) int

	lastActivity atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, initial engine.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if opts.Rankings == nil {
		opts.Rankings = ranking.Empty()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = history.Nop{}
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}

	l := &Lobby{
		code:     initial.Code,
		inbox:    make(chan Msg, 64), // Small buffer
		state:    initial.Clone(),
		clients:  make(map[string]chan []byte),
		rankings: opts.Rankings,
		clock:    opts.Clock,
		logger:   opts.Logger.With(zap.String("room", initial.Code)),
		recorder: opts.Recorder,
		intn:     opts.Intn,
		ctx:      ctx,
		cancel:   cancel,
	}
	l.touch(l.clock())

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.join(msg)

			case Leave:
				l.leave(msg.ClientID)
				if msg.Reply != nil {
					msg.Reply <- struct{}{}
				}

			case FromClient:
				err := l.handleCommand(msg)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Tick:
				ended := l.checkRoundOver(msg.Now)
				if msg.Reply != nil {
					msg.Reply <- ended
				}

			case timerFired:
				if msg.Gen == l.timerGen {
					l.checkRoundOver(l.clock())
				}

			case Broadcast:
				l.broadcast(msg.Payload)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) engine.Player {
	now := l.clock()
	l.seq++
	p := engine.Player{
		ID:    msg.ClientID,
		Name:  msg.Name,
		Color: pickColor(engine.UsedColors(l.state), l.intn),
		Seq:   l.seq,
	}

	l.state = engine.AddPlayer(l.state, p)
	l.clients[msg.ClientID] = msg.Outbox
	l.version++
	l.touch(now)
	l.logger.Debug("player joined", zap.String("conn", p.ID), zap.String("name", p.Name), zap.String("color", p.Color))

	l.broadcast(types.GameUpdate(l.state, now, nil))
	return p
}

func (l *Lobby) leave(id string) {
	if ch, ok := l.clients[id]; ok {
		close(ch)
		delete(l.clients, id)
	}

	next, removed := engine.RemovePlayer(l.state, id)
	if !removed {
		return
	}
	now := l.clock()
	l.state = next
	l.version++
	l.touch(now)
	l.logger.Debug("player left", zap.String("conn", id))

	l.broadcast(types.GameUpdate(l.state, now, nil))
}

func (l *Lobby) handleCommand(msg FromClient) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("command panicked, dropping connection",
				zap.String("conn", msg.ClientID), zap.Any("panic", r))
			l.leave(msg.ClientID)
			err = fmt.Errorf("command %s: %v", msg.Cmd.Type, r)
		}
	}()

	now := l.clock()
	l.touch(now)

	cmd := msg.Cmd
	cmd.PlayerID = msg.ClientID

	events, next, err := engine.Apply(l.state, cmd, l.rankings, now)
	if err != nil {
		// Rejections only go back to the sender.
		l.unicast(msg.ClientID, types.ErrorMessage(err))
	} else if len(events) > 0 {
		l.state = next
		l.version++

		var latest *engine.Entry
		for _, evt := range events {
			switch evt.Type {
			case engine.EvtRoundStarted:
				l.armTimer()
				l.logger.Info("round started", zap.Int("round", l.state.Round), zap.Int("players", len(l.state.Players)))
			case engine.EvtDomainScored:
				latest = evt.Entry
			}
		}
		l.broadcast(types.GameUpdate(l.state, now, latest))
	}

	l.checkRoundOver(now)
	return err
}

func (l *Lobby) checkRoundOver(now time.Time) bool {
	events, next := engine.CheckRoundOver(l.state, now)
	if !engine.ContainsEvent(events, engine.EvtRoundEnded) {
		return false
	}

	l.state = next
	l.version++
	l.timerGen++

	winner := events[0].Winner
	fields := []zap.Field{zap.Int("round", next.Round), zap.Int("domains", len(next.Entries))}
	if winner != nil {
		fields = append(fields, zap.String("winner", winner.Name), zap.Int("score", winner.Score))
	}
	l.logger.Info("round ended", fields...)

	l.broadcast(types.GameOver(winner))
	l.broadcast(types.GameUpdate(l.state, now, nil))
	l.record(next, winner)
	return true
}

// armTimer schedules a round-over check for the exact end of the round.
func (l *Lobby) armTimer() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerGen++
	gen := l.timerGen
	l.timer = time.AfterFunc(engine.RoundDuration, func() {
		select {
		case l.inbox <- timerFired{Gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) record(s engine.State, winner *engine.Player) {
	res := history.Result{
		RoomCode:  s.Code,
		Round:     s.Round,
		StartedAt: s.StartTime,
		EndedAt:   s.EndTime,
		Domains:   len(s.Entries),
	}
	if winner != nil {
		res.Winner = &history.PlayerResult{Name: winner.Name, Color: winner.Color, Score: winner.Score}
	}
	for _, p := range engine.SortedPlayers(s) {
		res.Players = append(res.Players, history.PlayerResult{Name: p.Name, Color: p.Color, Score: p.Score})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.recorder.RecordRound(ctx, res); err != nil {
			l.logger.Warn("failed to archive round", zap.Error(err))
		}
	}()
}

func (l *Lobby) touch(now time.Time) {
	l.lastActivity.Store(now.UnixNano())
}

func (l *Lobby) shutdown() {
	if l.timer != nil {
		l.timer.Stop()
	}
	for id, ch := range l.clients {
		close(ch) // Tell client no more frames
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) Code() string { return l.code }

// LastActivity is safe to call from any goroutine.
func (l *Lobby) LastActivity() time.Time {
	return time.Unix(0, l.lastActivity.Load())
}

// Done is closed once the lobby has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Close stops the lobby and closes every member outbox.
func (l *Lobby) Close() { l.cancel() }

// Join adds a player and registers out for future frames.
func (l *Lobby) Join(clientID, name string, out chan []byte) (engine.Player, error) {
	reply := make(chan engine.Player, 1)
	if err := l.send(Join{ClientID: clientID, Name: name, Outbox: out, Reply: reply}); err != nil {
		return engine.Player{}, err
	}
	return await(l, reply)
}

// Leave is idempotent.
func (l *Lobby) Leave(clientID string) error {
	reply := make(chan struct{}, 1)
	if err := l.send(Leave{ClientID: clientID, Reply: reply}); err != nil {
		return err
	}
	_, err := await(l, reply)
	return err
}

// Do applies cmd on behalf of clientID. Rejections are also delivered to the
// client's outbox.
func (l *Lobby) Do(clientID string, cmd engine.Command) error {
	reply := make(chan error, 1)
	if err := l.send(FromClient{ClientID: clientID, Cmd: cmd, Reply: reply}); err != nil {
		return err
	}
	err, waitErr := await(l, reply)
	if waitErr != nil {
		return waitErr
	}
	return err
}

func (l *Lobby) Tick(now time.Time) (bool, error) {
	reply := make(chan bool, 1)
	if err := l.send(Tick{Now: now, Reply: reply}); err != nil {
		return false, err
	}
	return await(l, reply)
}

func (l *Lobby) Broadcast(payload []byte) error {
	return l.send(Broadcast{Payload: payload})
}

func (l *Lobby) State() (View, error) {
	reply := make(chan View, 1)
	if err := l.send(GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	return await(l, reply)
}

func (l *Lobby) send(m Msg) error {
	select {
	case <-l.ctx.Done():
		return engine.ErrRoomNotFound
	default:
	}
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return engine.ErrRoomNotFound
	}
}

func await[T any](l *Lobby, reply <-chan T) (T, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		// the loop may have answered just before stopping
		select {
		case v := <-reply:
			return v, nil
		default:
			var zero T
			return zero, engine.ErrRoomNotFound
		}
	}
}
