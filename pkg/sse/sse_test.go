package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_SendWritesEventFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := New(rec)

	ok := sink.Send("phase", "normalizing")
	require.True(t, ok)
	assert.Contains(t, rec.Body.String(), "event:phase")
	assert.Contains(t, rec.Body.String(), "normalizing")
}

func TestSink_FailSendsErrorEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := New(rec)

	sink.Fail("something went wrong")
	assert.Contains(t, rec.Body.String(), "event:error")
}

func TestSink_DisconnectedAfterMarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := New(rec)

	ok := sink.Send("bad", make(chan int))
	assert.False(t, ok)
	assert.True(t, sink.Disconnected())

	ok2 := sink.Send("phase", "x")
	assert.False(t, ok2, "sink must stay disconnected for subsequent sends")
}
