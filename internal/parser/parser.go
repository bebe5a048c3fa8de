// Package parser reads flashcards written as Markdown Q:/A:/C: blocks.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	separator     = "---"
)

// Entry is one parsed card. Context is optional.
type Entry struct {
	Front   string
	Back    string
	Context string
}

// CardBack is the back of the card as stored: the answer, followed by the
// context on its own line when there is one.
func (e Entry) CardBack() string {
	if e.Context == "" {
		return e.Back
	}
	return e.Back + "\n" + e.Context
}

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingContext
)

// ParseFile reads the file at path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts all entries from r. An entry ends at a "---" line, at the
// next Q: line, or at the end of input; entries without a front or a back
// are dropped. Lines after a prefix line belong to the same field.
func Parse(r io.Reader) ([]Entry, error) {
	p := &entryParser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.finish()
	return p.entries, nil
}

type entryParser struct {
	entries []Entry
	current Entry
	block   []string
	state   state
}

func (p *entryParser) line(line string) {
	switch {
	case strings.TrimSpace(line) == separator:
		p.finish()
	case strings.HasPrefix(line, frontPrefix):
		if p.state != seeking {
			p.finish()
		}
		p.start(readingFront, line[len(frontPrefix):])
	case strings.HasPrefix(line, backPrefix) && p.state != seeking:
		p.start(readingBack, line[len(backPrefix):])
	case strings.HasPrefix(line, contextPrefix) && p.state != seeking:
		p.start(readingContext, line[len(contextPrefix):])
	case p.state != seeking:
		p.block = append(p.block, line)
	}
}

func (p *entryParser) start(s state, rest string) {
	p.flush()
	p.state = s
	p.block = append(p.block, strings.TrimPrefix(rest, " "))
}

// flush moves the collected lines into the field being read.
func (p *entryParser) flush() {
	if len(p.block) == 0 {
		return
	}
	content := strings.TrimSpace(strings.Join(p.block, "\n"))
	switch p.state {
	case readingFront:
		p.current.Front = content
	case readingBack:
		p.current.Back = content
	case readingContext:
		p.current.Context = content
	}
	p.block = nil
}

func (p *entryParser) finish() {
	p.flush()
	if p.current.Front != "" && p.current.Back != "" {
		p.entries = append(p.entries, p.current)
	}
	p.current = Entry{}
	p.state = seeking
}
