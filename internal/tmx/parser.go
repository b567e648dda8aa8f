package tmx

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// Parser loads one TMX file and exposes its header and translation units.
// The header is available as soon as Load returns; the unit list is built by
// a single background extraction and published in one step, so readers see
// either the previous complete list or the new complete list, never a
// partial one. One Parser serves one file; Load may be called again to
// re-read it.
//
// Load must not be called concurrently with itself. Every other method is
// safe for concurrent use.
type Parser struct {
	path string

	mu     sync.RWMutex
	header Header
	units  []TranslationUnit
	err    *LoadError
	done   chan struct{}
}

// NewParser returns a Parser bound to path. Nothing is read until Load.
func NewParser(path string) *Parser {
	done := make(chan struct{})
	close(done) // nothing in flight, Wait returns immediately
	return &Parser{path: path, done: done}
}

// Path returns the file this parser is bound to.
func (p *Parser) Path() string { return p.path }

// Load reads and decodes the whole file, commits the header, and starts the
// background unit extraction. It blocks for the read, the decode, and the
// header only; Wait blocks for the units.
//
// Any read, decode, or header failure is recorded as the sticky error and
// returned. Previously committed header and units are left untouched, and no
// background work is started.
func (p *Parser) Load(ctx context.Context) error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p.fail(KindAccess, err)
	}
	// The file handle is already closed; everything below runs on memory.

	doc, err := parseDocument(data)
	if err != nil {
		return p.fail(KindMalformed, err)
	}

	hdr, err := extractHeader(doc)
	if err != nil {
		return p.fail(KindMalformed, err)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.header = hdr
	p.err = nil
	p.done = done
	p.mu.Unlock()

	go p.extractAll(ctx, doc, hdr, done)
	return nil
}

// fail records the sticky error, leaving all previously committed state in
// place.
func (p *Parser) fail(kind ErrorKind, cause error) error {
	e := &LoadError{File: p.path, Kind: kind, Err: cause}
	p.mu.Lock()
	p.err = e
	p.mu.Unlock()
	return e
}

// extractAll is the background phase: it walks every tu element, builds the
// complete new unit list off to the side, and publishes it with one swap.
// The done channel doubles as the generation token; a newer Load supersedes
// this extraction and its result is discarded.
func (p *Parser) extractAll(ctx context.Context, doc *document, hdr Header, done chan struct{}) {
	defer close(done)

	var units []TranslationUnit
	skipped := 0
	if body := doc.root.firstChild("body"); body != nil {
		nodes := body.childElements("tu")
		units = make([]TranslationUnit, 0, len(nodes))
		for i, tu := range nodes {
			if ctx.Err() != nil {
				p.mu.Lock()
				if p.done == done {
					p.err = &LoadError{File: p.path, Kind: KindCancelled, Err: ctx.Err()}
				}
				p.mu.Unlock()
				return
			}
			u, err := extractUnit(tu, hdr)
			if err != nil {
				skipped++
				log.Warn().Str("file", p.path).Int("unit", i).Err(err).Msg("Skipping malformed translation unit")
				continue
			}
			units = append(units, u)
		}
	}

	p.mu.Lock()
	if p.done == done {
		p.units = units
	}
	p.mu.Unlock()

	log.Debug().Str("file", p.path).Int("units", len(units)).Int("skipped", skipped).Msg("Unit extraction complete")
}

// Wait blocks until the unit extraction started by the most recent Load has
// finished. It returns immediately when nothing is in flight, may be called
// any number of times, and unblocks early with ctx.Err() if ctx is
// cancelled.
func (p *Parser) Wait(ctx context.Context) error {
	p.mu.RLock()
	done := p.done
	p.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Header returns the current header snapshot. It is the zero Header until
// the first successful Load.
func (p *Parser) Header() Header {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.header
}

// Units returns the current unit snapshot. The returned slice is shared;
// callers must not modify it.
func (p *Parser) Units() []TranslationUnit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.units
}

// Err returns the sticky *LoadError of the most recent Load, or nil when it
// succeeded. Field-level problems never show up here.
func (p *Parser) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err == nil {
		return nil
	}
	return p.err
}

// ParseFile is the synchronous convenience path: load path and wait for the
// complete unit list.
func ParseFile(ctx context.Context, path string) (*Parser, error) {
	p := NewParser(path)
	if err := p.Load(ctx); err != nil {
		return p, err
	}
	if err := p.Wait(ctx); err != nil {
		return p, err
	}
	// The background phase may have recorded a cancellation.
	if err := p.Err(); err != nil {
		return p, err
	}
	return p, nil
}
