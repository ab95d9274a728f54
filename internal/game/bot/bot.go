package bot

import (
	"durak/internal/game/rules"
	"durak/internal/game/table"
)

// Move kinds the agent can produce. They map one-to-one onto the
// engine's player actions.
const (
	Attack = "attack"
	Defend = "defend"
	Beat   = "beat"
	Pass   = "pass"
)

type Move struct {
	Kind      string
	Card      table.Card
	PairIndex int
}

// ChooseAttack scans the hand in stored order and picks the first card
// that is a legal attack. With nothing to play the bot resolves the
// round: beat when the table is fully defended, otherwise pass.
// First-match selection keeps the agent reproducible for a fixed hand.
func ChooseAttack(hand []table.Card, pairs []table.Pair) Move {
	for _, c := range hand {
		if rules.CanAttack(c, pairs) {
			return Move{Kind: Attack, Card: c}
		}
	}
	if table.AllDefended(pairs) {
		return Move{Kind: Beat}
	}
	return Move{Kind: Pass}
}

// ChooseDefense covers the first undefended pair with the first hand
// card that beats it, or takes the table when nothing fits.
func ChooseDefense(hand []table.Card, pairs []table.Pair, trumpSuit string) Move {
	for i, p := range pairs {
		if p.Defended() {
			continue
		}
		for _, c := range hand {
			if rules.CanDefend(c, p.Attack, trumpSuit) {
				return Move{Kind: Defend, Card: c, PairIndex: i}
			}
		}
	}
	return Move{Kind: Pass}
}
