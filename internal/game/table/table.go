package table

import "fmt"

// Suit names as they appear on the wire.
const (
	Hearts   = "hearts"
	Diamonds = "diamonds"
	Clubs    = "clubs"
	Spades   = "spades"
)

var Suits = []string{Hearts, Diamonds, Clubs, Spades}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8,
	"9": 9, "10": 10, "J": 11, "Q": 12, "K": 13, "A": 14,
}

// Card is an immutable value object. Equality is by (suit, rank);
// Value is monotonic with rank and only used for comparisons.
type Card struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

func NewCard(suit, rank string) Card {
	return Card{Suit: suit, Rank: rank, Value: rankValues[rank]}
}

func (c Card) Equal(o Card) bool {
	return c.Suit == o.Suit && c.Rank == o.Rank
}

func (c Card) String() string {
	glyphs := map[string]string{
		Hearts:   "♥",
		Diamonds: "♦",
		Clubs:    "♣",
		Spades:   "♠",
	}
	g, ok := glyphs[c.Suit]
	if !ok {
		g = "?"
	}
	return fmt.Sprintf("%s%s", c.Rank, g)
}

// Pair is one attack slot on the table. Defend stays nil until the
// defender beats the attack; once set it is only cleared by clearing
// the whole table.
type Pair struct {
	Attack Card  `json:"attack"`
	Defend *Card `json:"defend"`
}

func (p Pair) Defended() bool {
	return p.Defend != nil
}

// AllDefended is vacuously true for an empty table.
func AllDefended(pairs []Pair) bool {
	for _, p := range pairs {
		if !p.Defended() {
			return false
		}
	}
	return true
}

func HasUndefended(pairs []Pair) bool {
	return !AllDefended(pairs)
}
