package bot

import (
	"testing"

	"durak/internal/game/table"
)

func card(suit, rank string) table.Card {
	return table.NewCard(suit, rank)
}

func TestChooseAttackFirstMatch(t *testing.T) {
	hand := []table.Card{
		card(table.Clubs, "K"),
		card(table.Hearts, "9"),
		card(table.Spades, "9"),
	}
	pairs := []table.Pair{{Attack: card(table.Diamonds, "9")}}

	mv := ChooseAttack(hand, pairs)
	if mv.Kind != Attack {
		t.Fatalf("expected attack, got %s", mv.Kind)
	}
	// first match in stored hand order, not the "better" later one
	if !mv.Card.Equal(card(table.Hearts, "9")) {
		t.Fatalf("expected 9♥ first-match, got %s", mv.Card)
	}
}

func TestChooseAttackOpensEmptyTable(t *testing.T) {
	hand := []table.Card{card(table.Clubs, "K")}
	mv := ChooseAttack(hand, nil)
	if mv.Kind != Attack || !mv.Card.Equal(hand[0]) {
		t.Fatalf("expected the first hand card to open, got %+v", mv)
	}
}

func TestChooseAttackResolvesDefendedTable(t *testing.T) {
	d := card(table.Spades, "10")
	pairs := []table.Pair{{Attack: card(table.Spades, "9"), Defend: &d}}
	hand := []table.Card{card(table.Clubs, "K")}

	mv := ChooseAttack(hand, pairs)
	if mv.Kind != Beat {
		t.Fatalf("no playable card on a defended table should beat, got %s", mv.Kind)
	}
}

func TestChooseAttackPassesOnUndefendedTable(t *testing.T) {
	pairs := []table.Pair{{Attack: card(table.Spades, "9")}}
	hand := []table.Card{card(table.Clubs, "K")}

	mv := ChooseAttack(hand, pairs)
	if mv.Kind != Pass {
		t.Fatalf("no playable card on an undefended table should pass, got %s", mv.Kind)
	}
}

func TestChooseAttackEmptyHandResolves(t *testing.T) {
	mv := ChooseAttack(nil, nil)
	if mv.Kind != Beat {
		t.Fatalf("empty hand over an empty table resolves the round, got %s", mv.Kind)
	}
}

func TestChooseDefenseFirstUndefendedPair(t *testing.T) {
	d := card(table.Hearts, "K")
	pairs := []table.Pair{
		{Attack: card(table.Hearts, "10"), Defend: &d},
		{Attack: card(table.Spades, "7")},
		{Attack: card(table.Spades, "J")},
	}
	hand := []table.Card{
		card(table.Diamonds, "6"),
		card(table.Spades, "8"),
		card(table.Spades, "Q"),
	}

	mv := ChooseDefense(hand, pairs, table.Clubs)
	if mv.Kind != Defend {
		t.Fatalf("expected defend, got %s", mv.Kind)
	}
	if mv.PairIndex != 1 {
		t.Fatalf("expected first undefended pair 1, got %d", mv.PairIndex)
	}
	if !mv.Card.Equal(card(table.Spades, "8")) {
		t.Fatalf("expected first fitting card 8♠, got %s", mv.Card)
	}
}

func TestChooseDefenseUsesTrump(t *testing.T) {
	pairs := []table.Pair{{Attack: card(table.Spades, "A")}}
	hand := []table.Card{
		card(table.Diamonds, "K"),
		card(table.Hearts, "6"),
	}

	mv := ChooseDefense(hand, pairs, table.Hearts)
	if mv.Kind != Defend || !mv.Card.Equal(card(table.Hearts, "6")) {
		t.Fatalf("expected the trump 6♥ to defend A♠, got %+v", mv)
	}
}

func TestChooseDefenseTakesWhenHelpless(t *testing.T) {
	pairs := []table.Pair{{Attack: card(table.Spades, "A")}}
	hand := []table.Card{card(table.Diamonds, "K")}

	mv := ChooseDefense(hand, pairs, table.Clubs)
	if mv.Kind != Pass {
		t.Fatalf("expected pass (take), got %s", mv.Kind)
	}
}
