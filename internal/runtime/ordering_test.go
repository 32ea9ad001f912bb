package runtime_test

import (
	"testing"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func entry(name string, pos int, body string) runtime.Entry {
	e := runtime.Entry{Name: name, Pos: pos, Index: pos}
	if body != "" {
		e.Body = []byte(body)
	}
	return e
}

func names(entries []runtime.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestDocumentOrder(t *testing.T) {
	o := runtime.NewDocumentOrder(testShell("a", "b", "c"))
	assert.Nil(t, o.Prelude())

	assert.Empty(t, o.Accept(entry("c", 2, "C")))
	entries, bytes := o.Buffered()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, bytes)
	blocker, ok := o.Blocker()
	assert.True(t, ok)
	assert.Equal(t, "a", blocker)

	assert.Equal(t, []string{"a"}, names(o.Accept(entry("a", 0, "A"))))
	// A skipped slot releases the slots after it.
	assert.Equal(t, []string{"b", "c"}, names(o.Accept(entry("b", 1, ""))))

	_, ok = o.Blocker()
	assert.False(t, ok)
	assert.Empty(t, o.Drain())
}

func TestReadyOrder(t *testing.T) {
	o := runtime.NewReadyOrder(testShell("a", "b"))
	assert.Equal(t, `<div id="slot-a" data-slot="a"></div>`+"\n"+`<div id="slot-b" data-slot="b"></div>`+"\n", string(o.Prelude()))

	out := o.Accept(entry("b", 1, "B"))
	assert.Len(t, out, 1)
	assert.Equal(t, `<template data-slot="b">B</template>`+"\n", string(out[0].Body))

	skipped := o.Accept(entry("a", 0, ""))
	assert.Nil(t, skipped[0].Body)
	entries, _ := o.Buffered()
	assert.Zero(t, entries)
}

func TestScriptedOrder(t *testing.T) {
	factory := runtime.Scripted(domain.OrderDocument, []string{"b", "a"})
	o := factory(testShell("a", "b", "c"))

	assert.Empty(t, o.Accept(entry("a", 0, "A")))
	blocker, ok := o.Blocker()
	assert.True(t, ok)
	assert.Equal(t, "b", blocker)

	assert.Equal(t, []string{"b", "a"}, names(o.Accept(entry("b", 1, "B"))))
	// Sections absent from the script pass straight through.
	assert.Equal(t, []string{"c"}, names(o.Accept(entry("c", 2, "C"))))
}

func TestScriptedOrder_ReadyEnvelope(t *testing.T) {
	o := runtime.Scripted(domain.OrderReady, []string{"a"})(testShell("a"))
	assert.NotEmpty(t, o.Prelude())

	out := o.Accept(entry("a", 0, "A"))
	assert.Equal(t, `<template data-slot="a">A</template>`+"\n", string(out[0].Body))
}

func TestScriptedOrder_Drain(t *testing.T) {
	o := runtime.Scripted(domain.OrderDocument, []string{"x", "a"})(testShell("a"))
	assert.Empty(t, o.Accept(entry("a", 0, "A")))
	assert.Equal(t, []string{"a"}, names(o.Drain()))
}

func TestOrderingFor(t *testing.T) {
	for _, mode := range []domain.OrderingMode{"", domain.OrderDocument, domain.OrderReady} {
		f, err := runtime.OrderingFor(mode)
		assert.NoError(t, err)
		assert.NotNil(t, f)
	}
	_, err := runtime.OrderingFor("random")
	assert.Error(t, err)
}
