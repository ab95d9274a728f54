package engine

import (
	"time"

	"durak/internal/game/bot"
	"durak/internal/game/deck"
	"durak/internal/game/rules"
	"durak/internal/game/table"
	"durak/internal/utils"
	"durak/internal/websocket"
)

// ---------------------
//        PHASES
// ---------------------

type Phase int

const (
	AwaitingPlayers Phase = iota
	Dealing
	Active
	Finished
)

// ---------------------
//       PLAYERS
// ---------------------

// Player is shared between the room and the engine; the engine is the
// only writer of Hand. Connected mirrors the transport handle: a
// disconnected player keeps their seat and cards.
type Player struct {
	ID        string
	Name      string
	Hand      []table.Card
	IsBot     bool
	IsReady   bool
	Connected bool
}

// ---------------------
//   ACTION DEFINITION
// ---------------------

// Action kinds accepted by the loop. Everything that can touch game
// state enters through the action channel, so one goroutine owns the
// room and no mutation ever interleaves.
const (
	ActJoin       = "join"
	ActReady      = "ready"
	ActAttack     = "attack"
	ActDefend     = "defend"
	ActTransfer   = "transfer"
	ActThrowIn    = "throwIn"
	ActPass       = "pass"
	ActBeat       = "beat"
	ActSurrender  = "surrender"
	ActRestart    = "restart"
	ActChat       = "chat"
	ActDisconnect = "disconnect"
	actBotMove    = "botMove"
)

type Action struct {
	Player    string
	Kind      string
	Card      table.Card
	PairIndex int
	Name      string // join
	Message   string // chat
	gen       uint64 // botMove: turn generation the timer was armed for
}

// ---------------------
//       CONFIG
// ---------------------

type Config struct {
	DeckSize      int
	HandSize      int
	TableCapacity int
	BotDelay      time.Duration
}

func DefaultConfig() Config {
	return Config{
		DeckSize:      36,
		HandSize:      6,
		TableCapacity: 6,
		BotDelay:      2 * time.Second,
	}
}

// ---------------------
//       ENGINE
// ---------------------

// Engine owns one room's deal: deck, hands, table, roles and phase.
// Illegal actions are silent no-ops; every applied action ends in a
// broadcast, so clients always re-render from a consistent snapshot.
type Engine struct {
	RoomID string

	cfg Config
	hub websocket.HubInterface

	deck       *deck.Deck
	trumpSuit  string
	trumpCard  *table.Card
	tableCards []table.Pair
	discard    []table.Card

	players       []*Player
	attackerIndex int
	defenderIndex int

	phase  Phase
	winner *Player
	loser  *Player

	// OnFinished fires once per deal, after the final broadcast.
	OnFinished func(winnerID, loserID string)

	actionChan chan Action
	quit       chan struct{}
	botGen     uint64
	seed       func() int64
	notified   bool
}

func NewEngine(roomID string, cfg Config, hub websocket.HubInterface) *Engine {
	return &Engine{
		RoomID:     roomID,
		cfg:        cfg,
		hub:        hub,
		phase:      AwaitingPlayers,
		actionChan: make(chan Action, 32),
		quit:       make(chan struct{}),
		seed:       func() int64 { return time.Now().UnixNano() },
	}
}

// Run consumes the action channel until Stop. Exactly one Run per room.
func (e *Engine) Run() {
	for {
		select {
		case act := <-e.actionChan:
			e.handleAction(act)
		case <-e.quit:
			return
		}
	}
}

func (e *Engine) Stop() {
	close(e.quit)
}

// Enqueue hands an action to the room's loop. Never blocks forever on
// a stopped room.
func (e *Engine) Enqueue(a Action) {
	select {
	case e.actionChan <- a:
	case <-e.quit:
	}
}

// ---------------------
//      DISPATCH
// ---------------------

func (e *Engine) handleAction(a Action) {
	switch a.Kind {
	case ActJoin:
		e.join(a.Player, a.Name)
	case ActReady:
		e.ready(a.Player)
	case ActAttack, ActDefend, ActTransfer:
		e.playCard(a.Player, a.Card, a.Kind, a.PairIndex)
	case ActThrowIn:
		e.throwIn(a.Player, a.Card)
	case ActPass:
		e.pass(a.Player)
	case ActBeat:
		e.beat(a.Player)
	case ActSurrender:
		e.surrender(a.Player)
	case ActRestart:
		e.restart(a.Player)
	case ActChat:
		e.chat(a.Player, a.Message)
	case ActDisconnect:
		if p := e.playerByID(a.Player); p != nil {
			p.Connected = false
		}
	case actBotMove:
		e.botMove(a.gen)
	}
}

// ---------------------
//   SESSION LIFECYCLE
// ---------------------

// join registers a new player, or rebinds a returning one without
// touching game state. The first human to join gets a bot opponent.
// Registration closes once a deal starts; an empty-handed newcomer
// would otherwise trip the win check.
func (e *Engine) join(playerID, name string) {
	if p := e.playerByID(playerID); p != nil {
		p.Connected = true
		e.sendHand(p)
		e.broadcastState()
		return
	}
	if e.phase != AwaitingPlayers {
		return
	}

	e.players = append(e.players, &Player{
		ID:        playerID,
		Name:      name,
		Connected: true,
	})
	if e.humanCount() == 1 {
		e.players = append(e.players, &Player{
			ID:      "bot:" + e.RoomID,
			Name:    "Бот",
			IsBot:   true,
			IsReady: true,
		})
	}

	if len(e.players) >= 2 && e.phase == AwaitingPlayers {
		e.startGame()
		return
	}
	e.broadcastState()
}

// ready is the human-gated start signal after a restart.
func (e *Engine) ready(playerID string) {
	p := e.playerByID(playerID)
	if p == nil {
		return
	}
	p.IsReady = true

	if e.phase == AwaitingPlayers && len(e.players) >= 2 && e.allReady() {
		e.startGame()
		return
	}
	e.broadcastState()
}

// restart throws the whole deal away and rebuilds around the same
// player identities. Bots stay ready, humans must ready up again.
func (e *Engine) restart(playerID string) {
	if e.playerByID(playerID) == nil {
		return
	}
	e.deck = nil
	e.trumpSuit = ""
	e.trumpCard = nil
	e.tableCards = nil
	e.discard = nil
	e.attackerIndex = 0
	e.defenderIndex = 0
	e.winner = nil
	e.loser = nil
	e.notified = false
	e.phase = AwaitingPlayers
	for _, p := range e.players {
		p.Hand = nil
		p.IsReady = p.IsBot
	}
	e.botGen++
	e.broadcastState()
}

func (e *Engine) chat(playerID, message string) {
	p := e.playerByID(playerID)
	if p == nil {
		return
	}
	e.hub.BroadcastToPlayers(e.humanIDs(), websocket.OutgoingMessage{
		Event: "chatMessage",
		Data: map[string]any{
			"player":  p.Name,
			"message": message,
		},
	})
}

// ---------------------
//     GAME START
// ---------------------

func (e *Engine) startGame() {
	d, err := deck.New(e.cfg.DeckSize, e.seed())
	if err != nil {
		// configuration error; the room stays joinable
		utils.Print.Error("deck build failed", "room", e.RoomID, "err", err)
		return
	}
	e.deck = d
	e.phase = Dealing

	trump, _ := d.Trump()
	e.trumpCard = &trump
	e.trumpSuit = trump.Suit

	e.tableCards = nil
	e.discard = nil
	e.winner = nil
	e.loser = nil
	e.notified = false
	for _, p := range e.players {
		p.Hand = nil
	}

	// a human leads the opening attack
	e.attackerIndex = e.firstHumanIndex()
	e.defenderIndex = (e.attackerIndex + 1) % len(e.players)
	e.dealUpTo()

	e.phase = Active
	e.botGen++
	e.broadcastState()
}

// dealUpTo replenishes hands to the configured size, attacker first,
// never touching the reserved trump at the bottom of the deck.
func (e *Engine) dealUpTo() {
	n := len(e.players)
	for i := 0; i < n; i++ {
		p := e.players[(e.attackerIndex+i)%n]
		for len(p.Hand) < e.cfg.HandSize && e.deck.Len() > 1 {
			c, ok := e.deck.Draw()
			if !ok {
				return
			}
			p.Hand = append(p.Hand, c)
		}
	}
}

// ---------------------
//    PLAYER ACTIONS
// ---------------------

func (e *Engine) playCard(playerID string, card table.Card, action string, pairIndex int) bool {
	if e.phase != Active {
		return false
	}
	p := e.playerByID(playerID)
	if p == nil {
		return false
	}
	idx := handIndex(p, card)
	if idx < 0 {
		return false
	}

	switch {
	case action == ActAttack && p == e.attacker():
		if len(e.tableCards) >= e.cfg.TableCapacity || !rules.CanAttack(card, e.tableCards) {
			return false
		}
		e.removeFromHand(p, idx)
		e.tableCards = append(e.tableCards, table.Pair{Attack: card})

	case action == ActDefend && p == e.defender():
		if pairIndex < 0 || pairIndex >= len(e.tableCards) || e.tableCards[pairIndex].Defended() {
			return false
		}
		if !rules.CanDefend(card, e.tableCards[pairIndex].Attack, e.trumpSuit) {
			return false
		}
		e.removeFromHand(p, idx)
		c := card
		e.tableCards[pairIndex].Defend = &c

	case action == ActTransfer && p == e.defender():
		if len(e.tableCards) >= e.cfg.TableCapacity || !rules.CanTransfer(card, e.tableCards) {
			return false
		}
		e.removeFromHand(p, idx)
		e.tableCards = append(e.tableCards, table.Pair{Attack: card})
		// the next player inherits the defense; the attacker stays
		e.defenderIndex = (e.defenderIndex + 1) % len(e.players)

	default:
		return false
	}

	e.botGen++
	e.broadcastState()
	return true
}

// throwIn lets a bystander (neither attacker nor defender) add a
// rank-matching card. In two-player rooms it can never apply.
func (e *Engine) throwIn(playerID string, card table.Card) bool {
	if e.phase != Active {
		return false
	}
	p := e.playerByID(playerID)
	if p == nil || p == e.attacker() || p == e.defender() {
		return false
	}
	idx := handIndex(p, card)
	if idx < 0 {
		return false
	}
	if len(e.tableCards) >= e.cfg.TableCapacity || !rules.CanAttack(card, e.tableCards) {
		return false
	}
	e.removeFromHand(p, idx)
	e.tableCards = append(e.tableCards, table.Pair{Attack: card})
	e.botGen++
	e.broadcastState()
	return true
}

// pass is overloaded by role: the attacker resolves a fully defended
// table (discard + advance), the defender takes an unbeaten one. The
// two guards are mutually exclusive for any table.
func (e *Engine) pass(playerID string) bool {
	if e.phase != Active {
		return false
	}
	p := e.playerByID(playerID)
	if p == nil {
		return false
	}

	switch {
	case p == e.attacker() && table.AllDefended(e.tableCards):
		e.discardTable()
		e.nextAttacker()
		e.dealUpTo()

	case p == e.defender() && table.HasUndefended(e.tableCards):
		// taking keeps the roles: the same attacker leads again
		for _, pair := range e.tableCards {
			p.Hand = append(p.Hand, pair.Attack)
			if pair.Defend != nil {
				p.Hand = append(p.Hand, *pair.Defend)
			}
		}
		e.tableCards = nil
		e.dealUpTo()

	default:
		return false
	}

	e.botGen++
	e.broadcastState()
	return true
}

// beat is the attacker-only alias of the "all defended" pass branch.
func (e *Engine) beat(playerID string) bool {
	if e.phase != Active {
		return false
	}
	p := e.playerByID(playerID)
	if p == nil || p != e.attacker() || !table.AllDefended(e.tableCards) {
		return false
	}
	e.discardTable()
	e.nextAttacker()
	e.dealUpTo()
	e.botGen++
	e.broadcastState()
	return true
}

// surrender is an unconditional forfeit.
func (e *Engine) surrender(playerID string) bool {
	if e.phase != Active {
		return false
	}
	p := e.playerByID(playerID)
	if p == nil {
		return false
	}
	e.loser = p
	e.winner = e.otherPlayer(p)
	e.phase = Finished
	e.botGen++
	e.broadcastState()
	return true
}

// ---------------------
//    ROUND PLUMBING
// ---------------------

func (e *Engine) discardTable() {
	for _, pair := range e.tableCards {
		e.discard = append(e.discard, pair.Attack)
		if pair.Defend != nil {
			e.discard = append(e.discard, *pair.Defend)
		}
	}
	e.tableCards = nil
}

func (e *Engine) nextAttacker() {
	n := len(e.players)
	e.attackerIndex = (e.attackerIndex + 1) % n
	e.defenderIndex = (e.attackerIndex + 1) % n
}

// checkWin runs on every broadcast once a trump exists. Emptying your
// hand only wins once the draw stock is down to the reserved trump;
// earlier it marks you the loser. The scan stops at the first decision
// (seat order from the attacker) so one pass never crowns two players.
func (e *Engine) checkWin() {
	n := len(e.players)
	for i := 0; i < n; i++ {
		p := e.players[(e.attackerIndex+i)%n]
		if len(p.Hand) > 0 {
			continue
		}
		if e.deck.Len() == 1 {
			e.winner = p
			if n == 2 {
				e.loser = e.otherPlayer(p)
			}
		} else {
			e.loser = p
			if n == 2 {
				e.winner = e.otherPlayer(p)
			}
		}
		e.phase = Finished
		return
	}
}

// ---------------------
//      BROADCAST
// ---------------------

type PublicPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
	IsReady   bool   `json:"isReady"`
}

// PublicState never carries hand contents, only counts. Hands travel
// solely in per-player yourHand messages.
type PublicState struct {
	Players         []PublicPlayer `json:"players"`
	TrumpSuit       string         `json:"trumpSuit"`
	TrumpCard       *table.Card    `json:"trumpCard"`
	Table           []table.Pair   `json:"table"`
	DiscardPile     int            `json:"discardPile"`
	DeckCount       int            `json:"deckCount"`
	CurrentAttacker string         `json:"currentAttacker"`
	CurrentDefender string         `json:"currentDefender"`
	GameOver        bool           `json:"gameOver"`
	Winner          string         `json:"winner"`
	Loser           string         `json:"loser"`
}

func (e *Engine) publicState() PublicState {
	s := PublicState{
		Players:     make([]PublicPlayer, 0, len(e.players)),
		TrumpSuit:   e.trumpSuit,
		TrumpCard:   e.trumpCard,
		Table:       e.tableCards,
		DiscardPile: len(e.discard),
		GameOver:    e.phase == Finished,
	}
	if e.deck != nil {
		s.DeckCount = e.deck.Len()
	}
	for _, p := range e.players {
		s.Players = append(s.Players, PublicPlayer{
			ID:        p.ID,
			Name:      p.Name,
			CardCount: len(p.Hand),
			IsReady:   p.IsReady,
		})
	}
	if a := e.attacker(); a != nil {
		s.CurrentAttacker = a.ID
	}
	if d := e.defender(); d != nil {
		s.CurrentDefender = d.ID
	}
	if e.winner != nil {
		s.Winner = e.winner.Name
	}
	if e.loser != nil {
		s.Loser = e.loser.Name
	}
	return s
}

func (e *Engine) broadcastState() {
	if e.trumpSuit != "" && e.phase == Active {
		e.checkWin()
	}

	e.hub.BroadcastToPlayers(e.humanIDs(), websocket.OutgoingMessage{
		Event: "gameState",
		Data:  e.publicState(),
	})
	for _, p := range e.players {
		if !p.IsBot && p.Connected {
			e.sendHand(p)
		}
	}

	if e.phase == Finished {
		if !e.notified {
			e.notified = true
			if e.OnFinished != nil {
				var w, l string
				if e.winner != nil {
					w = e.winner.ID
				}
				if e.loser != nil {
					l = e.loser.ID
				}
				go e.OnFinished(w, l)
			}
		}
		return
	}

	if e.phase == Active {
		a, d := e.attacker(), e.defender()
		if (a != nil && a.IsBot) || (d != nil && d.IsBot) {
			e.scheduleBot()
		}
	}
}

func (e *Engine) sendHand(p *Player) {
	e.hub.SendToPlayer(p.ID, websocket.OutgoingMessage{
		Event: "yourHand",
		Data:  p.Hand,
	})
}

// ---------------------
//      BOT AGENT
// ---------------------

// scheduleBot arms a deferred move stamped with the current turn
// generation. Any applied action or restart bumps the generation, so a
// timer that fires late finds its stamp stale and does nothing.
func (e *Engine) scheduleBot() {
	gen := e.botGen
	time.AfterFunc(e.cfg.BotDelay, func() {
		e.Enqueue(Action{Kind: actBotMove, gen: gen})
	})
}

func (e *Engine) botMove(gen uint64) {
	if gen != e.botGen || e.phase != Active {
		return
	}

	if a := e.attacker(); a != nil && a.IsBot {
		mv := bot.ChooseAttack(a.Hand, e.tableCards)
		// the policy is capacity-blind; a full defended table must resolve
		if mv.Kind == bot.Attack && len(e.tableCards) >= e.cfg.TableCapacity {
			if table.AllDefended(e.tableCards) {
				mv = bot.Move{Kind: bot.Beat}
			} else {
				mv = bot.Move{Kind: bot.Pass}
			}
		}
		switch mv.Kind {
		case bot.Attack:
			e.playCard(a.ID, mv.Card, ActAttack, 0)
		case bot.Beat:
			e.beat(a.ID)
		default:
			e.pass(a.ID)
		}
		return
	}

	if d := e.defender(); d != nil && d.IsBot {
		mv := bot.ChooseDefense(d.Hand, e.tableCards, e.trumpSuit)
		switch mv.Kind {
		case bot.Defend:
			e.playCard(d.ID, mv.Card, ActDefend, mv.PairIndex)
		default:
			e.pass(d.ID)
		}
	}
}

// ---------------------
//       HELPERS
// ---------------------

func (e *Engine) attacker() *Player {
	if e.phase != Active && e.phase != Finished {
		return nil
	}
	if len(e.players) == 0 || e.attackerIndex >= len(e.players) {
		return nil
	}
	return e.players[e.attackerIndex]
}

func (e *Engine) defender() *Player {
	if e.phase != Active && e.phase != Finished {
		return nil
	}
	if len(e.players) == 0 || e.defenderIndex >= len(e.players) {
		return nil
	}
	return e.players[e.defenderIndex]
}

func (e *Engine) playerByID(id string) *Player {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) otherPlayer(p *Player) *Player {
	for _, o := range e.players {
		if o != p {
			return o
		}
	}
	return nil
}

func (e *Engine) humanIDs() []string {
	ids := make([]string, 0, len(e.players))
	for _, p := range e.players {
		if !p.IsBot {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (e *Engine) humanCount() int {
	return len(e.humanIDs())
}

func (e *Engine) firstHumanIndex() int {
	for i, p := range e.players {
		if !p.IsBot {
			return i
		}
	}
	return 0
}

func (e *Engine) allReady() bool {
	for _, p := range e.players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

func handIndex(p *Player, card table.Card) int {
	for i, c := range p.Hand {
		if c.Equal(card) {
			return i
		}
	}
	return -1
}

func (e *Engine) removeFromHand(p *Player, i int) {
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
}
