// internal/cards/cards.go
package cards

import (
	"errors"
	"math/rand"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog would have nothing to deal.
var ErrEmptyCatalog = errors.New("card catalog is empty")

// Card is a secret word plus the terms the describer may not say.
type Card struct {
	Word           string   `json:"word"`
	ForbiddenTerms []string `json:"forbiddenTerms"`
}

// Source supplies cards to the turn engine.
type Source interface {
	Draw() Card
}

// Catalog is a fixed set of cards drawn uniformly at random.
type Catalog struct {
	cards []Card
	intn  func(n int) int
}

// NewCatalog copies the given cards into a Catalog. Blank words are skipped
// and words are normalized to upper case.
func NewCatalog(cards []Card) (*Catalog, error) {
	clean := make([]Card, 0, len(cards))
	for _, c := range cards {
		word := strings.ToUpper(strings.TrimSpace(c.Word))
		if word == "" {
			continue
		}
		terms := make([]string, 0, len(c.ForbiddenTerms))
		for _, t := range c.ForbiddenTerms {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				terms = append(terms, t)
			}
		}
		clean = append(clean, Card{Word: word, ForbiddenTerms: terms})
	}
	if len(clean) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{cards: clean, intn: rand.Intn}, nil
}

// Draw returns a copy of a random card so callers cannot mutate the catalog.
func (c *Catalog) Draw() Card {
	card := c.cards[c.intn(len(c.cards))]
	terms := make([]string, len(card.ForbiddenTerms))
	copy(terms, card.ForbiddenTerms)
	return Card{Word: card.Word, ForbiddenTerms: terms}
}

// Len reports how many cards the catalog holds.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := NewCatalog(builtin)
	return c
}

var builtin = []Card{
	{Word: "PIZZA", ForbiddenTerms: []string{"FORNO", "MOZZARELLA", "NAPOLI", "MARINARA", "TRANCIO"}},
	{Word: "CALCIO", ForbiddenTerms: []string{"PALLONE", "GOL", "ARBITRO", "SERIE A", "PORTIERE"}},
	{Word: "CHITARRA", ForbiddenTerms: []string{"CORDE", "PLETTRO", "ACCORDI", "SUONARE", "AMPLIFICATORE"}},
	{Word: "AEREO", ForbiddenTerms: []string{"VOLARE", "PILOTA", "AEROPORTO", "ALI", "DECOLLO"}},
	{Word: "GELATO", ForbiddenTerms: []string{"CONO", "COPPA", "ESTATE", "GUSTO", "PANNA"}},
	{Word: "PASSWORD", ForbiddenTerms: []string{"ACCOUNT", "LOGIN", "CODICE", "EMAIL", "SICUREZZA"}},
	{Word: "ROMA", ForbiddenTerms: []string{"COLOSSEO", "CAPITALE", "TEVERE", "VATICANO", "TRASTEVERE"}},
	{Word: "CINEMA", ForbiddenTerms: []string{"FILM", "SALA", "POP CORN", "BIGLIETTO", "SCHERMO"}},
	{Word: "MARE", ForbiddenTerms: []string{"SPIAGGIA", "ONDE", "SABBIA", "ESTATE", "OMBRELLONE"}},
	{Word: "PALLAVOLO", ForbiddenTerms: []string{"RETE", "SCHIACCIATA", "SERVIZIO", "SET", "SQUADRA"}},
	{Word: "CUCINA", ForbiddenTerms: []string{"PENTOLA", "RICETTA", "FORNELLO", "CUOCO", "INGREDIENTI"}},
	{Word: "BICI", ForbiddenTerms: []string{"PEDALI", "RUOTE", "CASCO", "CATENA", "SELLA"}},
	{Word: "SMARTPHONE", ForbiddenTerms: []string{"APP", "SCHERMO", "CHIAMATA", "ANDROID", "IPHONE"}},
	{Word: "BIBLIOTECA", ForbiddenTerms: []string{"LIBRI", "SILENZIO", "STUDIO", "PRESTITO", "SCAFFALI"}},
	{Word: "TENNIS", ForbiddenTerms: []string{"RACCHETTA", "PALLINA", "SERVIZIO", "CAMPO", "SET"}},
	{Word: "PESCE", ForbiddenTerms: []string{"ACQUA", "MARE", "SQUAME", "PINNE", "RETE"}},
	{Word: "AUTO", ForbiddenTerms: []string{"MOTORE", "VOLANTE", "PATENTE", "BENZINA", "STRADA"}},
	{Word: "SCACCHI", ForbiddenTerms: []string{"RE", "REGINA", "SCACCO", "TORRE", "PEDONE"}},
	{Word: "MUSICA", ForbiddenTerms: []string{"CANZONE", "SUONO", "RITMO", "NOTE", "ASCOLTARE"}},
	{Word: "COMPLEANNO", ForbiddenTerms: []string{"TORTA", "CANDELE", "REGALO", "FESTA", "AUGURI"}},
}
