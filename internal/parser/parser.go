// Package parser reads flashcards from markdown files.
//
// A card starts with a "Q:" line (the front) followed by an "A:" line (the
// back) and an optional "C:" line (context). Each field may continue over
// several lines. A "---" line or the next "Q:" ends the card. A "# " heading
// before the first card names the deck.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knoldeck/internal/domain"
)

const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	titlePrefix   = "# "
	separator     = "---"
)

type field int

const (
	fieldNone field = iota
	fieldFront
	fieldBack
	fieldContext
)

// Document is the result of parsing one markdown file.
type Document struct {
	Title string
	Cards []domain.Card
}

// ParseFile reads a file from the given path and extracts its cards.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

type parser struct {
	doc     Document
	card    domain.Card
	current field
	block   []string
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(strings.TrimRight(scanner.Text(), "\r"))
	}
	p.finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &p.doc, nil
}

func (p *parser) line(line string) {
	switch {
	case line == separator:
		p.finishCard()
	case strings.HasPrefix(line, frontPrefix):
		// A new front always starts a new card.
		p.finishCard()
		p.begin(fieldFront, line[len(frontPrefix):])
	case strings.HasPrefix(line, backPrefix):
		p.begin(fieldBack, line[len(backPrefix):])
	case strings.HasPrefix(line, contextPrefix):
		p.begin(fieldContext, line[len(contextPrefix):])
	case p.current != fieldNone:
		p.block = append(p.block, line)
	case p.doc.Title == "" && len(p.doc.Cards) == 0 && strings.HasPrefix(line, titlePrefix):
		p.doc.Title = strings.TrimSpace(line[len(titlePrefix):])
	}
}

func (p *parser) begin(f field, rest string) {
	p.flushField()
	p.current = f
	p.block = append(p.block, strings.TrimPrefix(rest, " "))
}

func (p *parser) flushField() {
	if len(p.block) == 0 {
		return
	}
	content := strings.TrimRight(strings.Join(p.block, "\n"), "\n")
	switch p.current {
	case fieldFront:
		p.card.Front = content
	case fieldBack:
		p.card.Back = content
	case fieldContext:
		p.card.Context = content
	}
	p.block = nil
}

func (p *parser) finishCard() {
	p.flushField()
	if p.card.Front != "" {
		p.doc.Cards = append(p.doc.Cards, p.card)
	}
	p.card = domain.Card{}
	p.current = fieldNone
}
