package deck

import (
	"fmt"
	"math/rand"

	"durak/internal/game/table"
)

var allRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Deck is an ordered card sequence. Cards leave only from the top; the
// bottom card is read once as the trump and is the last card that could
// ever be drawn.
type Deck struct {
	cards []table.Card
	rnd   *rand.Rand
}

// New builds the suit x rank cross product for the variant (24 = ranks
// 9..A, 36 = 6..A, 52 = full) and shuffles it with Fisher-Yates.
func New(size int, seed int64) (*Deck, error) {
	ranks, err := ranksFor(size)
	if err != nil {
		return nil, err
	}
	d := &Deck{
		cards: make([]table.Card, 0, size),
		rnd:   rand.New(rand.NewSource(seed)),
	}
	for _, suit := range table.Suits {
		for _, rank := range ranks {
			d.cards = append(d.cards, table.NewCard(suit, rank))
		}
	}
	d.shuffle()
	return d, nil
}

func ranksFor(size int) ([]string, error) {
	switch size {
	case 24:
		return allRanks[7:], nil
	case 36:
		return allRanks[4:], nil
	case 52:
		return allRanks, nil
	}
	return nil, fmt.Errorf("unsupported deck size %d", size)
}

func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rnd.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

func (d *Deck) Len() int {
	return len(d.cards)
}

// Trump returns the bottom card without removing it.
func (d *Deck) Trump() (table.Card, bool) {
	if len(d.cards) == 0 {
		return table.Card{}, false
	}
	return d.cards[len(d.cards)-1], true
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (table.Card, bool) {
	if len(d.cards) == 0 {
		return table.Card{}, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}
