package runtime

import (
	"fmt"
	"strings"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Entry is resolved slot content on its way to the sink.
// A nil Body marks a skipped slot: it advances the ordering but emits nothing.
type Entry struct {
	Name  string
	Pos   int
	Index int
	Body  []byte
}

// OrderingStrategy decides in which order resolved entries reach the sink.
// A strategy instance serves exactly one response and is only used from the
// scheduler goroutine.
type OrderingStrategy interface {
	// Prelude is appended to the shell prefix.
	Prelude() []byte

	// Accept takes a resolved entry and returns the entries that may be emitted now,
	// in emission order.
	Accept(e Entry) []Entry

	// Drain returns anything still buffered once every slot has resolved.
	Drain() []Entry

	// Buffered reports how many entries and body bytes are held back.
	Buffered() (entries, bytes int)

	// Blocker names the unresolved slot holding back buffered entries.
	Blocker() (string, bool)
}

// OrderingFactory creates the per-response strategy for a shell.
type OrderingFactory func(shell domain.Shell) OrderingStrategy

// OrderingFor returns the factory for a configured mode.
func OrderingFor(mode domain.OrderingMode) (OrderingFactory, error) {
	switch mode {
	case domain.OrderDocument, "":
		return NewDocumentOrder, nil
	case domain.OrderReady:
		return NewReadyOrder, nil
	default:
		return nil, fmt.Errorf("unknown ordering mode %q", mode)
	}
}

// documentOrder buffers an entry until every slot before it was emitted.
type documentOrder struct {
	names   []string
	next    int
	pending map[int]Entry
	bytes   int
}

// NewDocumentOrder produces output byte-identical to a synchronous
// top-to-bottom render.
func NewDocumentOrder(shell domain.Shell) OrderingStrategy {
	names := make([]string, len(shell.Slots))
	for i, slot := range shell.Slots {
		names[i] = slot.Name
	}
	return &documentOrder{names: names, pending: make(map[int]Entry)}
}

func (d *documentOrder) Prelude() []byte { return nil }

func (d *documentOrder) Accept(e Entry) []Entry {
	d.pending[e.Pos] = e
	d.bytes += len(e.Body)

	var ready []Entry
	for {
		next, ok := d.pending[d.next]
		if !ok {
			break
		}
		delete(d.pending, d.next)
		d.bytes -= len(next.Body)
		ready = append(ready, next)
		d.next++
	}
	return ready
}

func (d *documentOrder) Drain() []Entry {
	var rest []Entry
	for pos := d.next; pos < len(d.names); pos++ {
		if e, ok := d.pending[pos]; ok {
			rest = append(rest, e)
		}
	}
	clear(d.pending)
	d.bytes = 0
	d.next = len(d.names)
	return rest
}

func (d *documentOrder) Buffered() (int, int) { return len(d.pending), d.bytes }

func (d *documentOrder) Blocker() (string, bool) {
	if len(d.pending) == 0 || d.next >= len(d.names) {
		return "", false
	}
	return d.names[d.next], true
}

// readyOrder emits every entry immediately inside a named envelope so the
// client can position it out of band.
type readyOrder struct {
	names []string
}

// NewReadyOrder emits entries in resolution order. The prelude enumerates an
// empty placeholder per slot in document order.
func NewReadyOrder(shell domain.Shell) OrderingStrategy {
	names := make([]string, len(shell.Slots))
	for i, slot := range shell.Slots {
		names[i] = slot.Name
	}
	return &readyOrder{names: names}
}

func (r *readyOrder) Prelude() []byte { return placeholders(r.names) }

func (r *readyOrder) Accept(e Entry) []Entry { return []Entry{envelope(e)} }

func (r *readyOrder) Drain() []Entry { return nil }

func (r *readyOrder) Buffered() (int, int) { return 0, 0 }

func (r *readyOrder) Blocker() (string, bool) { return "", false }

// scriptedOrder releases entries in a previously recorded emission order.
type scriptedOrder struct {
	script  []string
	known   map[string]bool
	next    int
	pending map[string]Entry
	bytes   int
	ready   bool
	names   []string
}

// Scripted returns a factory that reproduces a recorded emission order.
// mode selects the envelope and prelude of the recorded response.
func Scripted(mode domain.OrderingMode, order []string) OrderingFactory {
	return func(shell domain.Shell) OrderingStrategy {
		names := make([]string, len(shell.Slots))
		for i, slot := range shell.Slots {
			names[i] = slot.Name
		}
		known := make(map[string]bool, len(order))
		for _, name := range order {
			known[name] = true
		}
		return &scriptedOrder{
			script:  order,
			known:   known,
			pending: make(map[string]Entry),
			ready:   mode == domain.OrderReady,
			names:   names,
		}
	}
}

func (s *scriptedOrder) Prelude() []byte {
	if s.ready {
		return placeholders(s.names)
	}
	return nil
}

func (s *scriptedOrder) Accept(e Entry) []Entry {
	if s.ready {
		e = envelope(e)
	}
	if e.Body == nil || !s.known[e.Name] {
		return []Entry{e}
	}
	s.pending[e.Name] = e
	s.bytes += len(e.Body)

	var ready []Entry
	for s.next < len(s.script) {
		next, ok := s.pending[s.script[s.next]]
		if !ok {
			break
		}
		delete(s.pending, next.Name)
		s.bytes -= len(next.Body)
		ready = append(ready, next)
		s.next++
	}
	return ready
}

func (s *scriptedOrder) Drain() []Entry {
	var rest []Entry
	for ; s.next < len(s.script); s.next++ {
		if e, ok := s.pending[s.script[s.next]]; ok {
			rest = append(rest, e)
		}
	}
	clear(s.pending)
	s.bytes = 0
	return rest
}

func (s *scriptedOrder) Buffered() (int, int) { return len(s.pending), s.bytes }

func (s *scriptedOrder) Blocker() (string, bool) {
	if len(s.pending) == 0 || s.next >= len(s.script) {
		return "", false
	}
	return s.script[s.next], true
}

func placeholders(names []string) []byte {
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, `<div id="slot-%s" data-slot="%s"></div>`+"\n", name, name)
	}
	return []byte(sb.String())
}

func envelope(e Entry) Entry {
	if e.Body == nil {
		return e
	}
	body := make([]byte, 0, len(e.Body)+48)
	body = fmt.Appendf(body, `<template data-slot="%s">`, e.Name)
	body = append(body, e.Body...)
	body = append(body, "</template>\n"...)
	e.Body = body
	return e
}
