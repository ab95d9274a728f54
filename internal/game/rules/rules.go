package rules

import "durak/internal/game/table"

// CanAttack reports whether card may be placed as a new attack: any
// card opens an empty table, afterwards the rank must match some card
// already in play. The same rule governs throw-ins.
func CanAttack(card table.Card, pairs []table.Pair) bool {
	if len(pairs) == 0 {
		return true
	}
	for _, p := range pairs {
		if p.Attack.Rank == card.Rank {
			return true
		}
	}
	return false
}

// CanDefend reports whether defend beats attack under trumpSuit:
// same suit and higher, or trump over non-trump, or higher trump over
// trump. A non-trump never beats a different non-trump suit.
func CanDefend(defend, attack table.Card, trumpSuit string) bool {
	if defend.Suit == attack.Suit {
		return defend.Value > attack.Value
	}
	return defend.Suit == trumpSuit && attack.Suit != trumpSuit
}

// CanTransfer reports whether the defender may shift the attack to the
// next player with card: some undefended pair must share its rank.
func CanTransfer(card table.Card, pairs []table.Pair) bool {
	for _, p := range pairs {
		if !p.Defended() && p.Attack.Rank == card.Rank {
			return true
		}
	}
	return false
}
