package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChat returns canned replies in order and records what it was sent.
type scriptedChat struct {
	replies []string
	calls   [][]Message
}

func (c *scriptedChat) Complete(_ context.Context, messages []Message) (string, error) {
	c.calls = append(c.calls, messages)
	reply := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return reply, nil
}

func TestHandleAccumulatesAcrossTurns(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		`{"message":"Nama tokonya apa?","step":2,"data":{"business_type":"warung kopi"},"complete":false}`,
		`{"message":"Jual apa aja?","step":3,"data":{"business_name":"Kopi Senja"},"complete":false}`,
		`{"message":"Email kamu?","step":4,"data":{"items":["Kopi Susu","Es Teh"]},"complete":false}`,
		`{"message":"Siap, toko kamu dibuat!","step":4,"data":{"email":"senja@tes.id"},"complete":true}`,
	}}
	assistant := NewAssistant(NewMemorySessionStore(), chat, time.Minute, zerolog.Nop())
	ctx := context.Background()

	out, err := assistant.Handle(ctx, "", "halo, mau buka toko")
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionID)
	assert.False(t, out.Complete)
	assert.Equal(t, "Nama tokonya apa?", out.Message)
	assert.Equal(t, "warung kopi", out.Data.BusinessType)

	sessionID := out.SessionID
	out, err = assistant.Handle(ctx, sessionID, "Kopi Senja")
	require.NoError(t, err)
	assert.Equal(t, sessionID, out.SessionID, "same session carries through")

	out, err = assistant.Handle(ctx, sessionID, "kopi susu sama es teh")
	require.NoError(t, err)
	assert.False(t, out.Complete)

	out, err = assistant.Handle(ctx, sessionID, "senja@tes.id")
	require.NoError(t, err)
	assert.True(t, out.Complete)

	// earlier turns stay folded into the final extraction
	assert.Equal(t, "warung kopi", out.Data.BusinessType)
	assert.Equal(t, "Kopi Senja", out.Data.BusinessName)
	assert.Equal(t, []string{"Kopi Susu", "Es Teh"}, out.Data.Items)
	assert.Equal(t, "senja@tes.id", out.Data.Email)

	// every call leads with the system prompt, then the growing history
	require.Len(t, chat.calls, 4)
	assert.Equal(t, "system", chat.calls[0][0].Role)
	assert.Len(t, chat.calls[0], 2)
	assert.Len(t, chat.calls[3], 8)
}

func TestHandleRejectsEmptyMessage(t *testing.T) {
	assistant := NewAssistant(NewMemorySessionStore(), &scriptedChat{replies: []string{"{}"}}, time.Minute, zerolog.Nop())

	_, err := assistant.Handle(context.Background(), "", "   ")
	assert.Error(t, err)
}

func TestHandleMalformedModelReply(t *testing.T) {
	chat := &scriptedChat{replies: []string{"maaf, aku bingung"}}
	assistant := NewAssistant(NewMemorySessionStore(), chat, time.Minute, zerolog.Nop())

	_, err := assistant.Handle(context.Background(), "", "halo")
	assert.Error(t, err)
}

func TestHandleUnknownSessionStartsFresh(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		`{"message":"Halo!","step":1,"data":{},"complete":false}`,
	}}
	assistant := NewAssistant(NewMemorySessionStore(), chat, time.Minute, zerolog.Nop())

	out, err := assistant.Handle(context.Background(), "expired-session", "halo")
	require.NoError(t, err)
	assert.NotEqual(t, "expired-session", out.SessionID)
}

func TestHandleDefaultMessage(t *testing.T) {
	chat := &scriptedChat{replies: []string{
		`{"step":2,"data":{"business_type":"barbershop"},"complete":false}`,
	}}
	assistant := NewAssistant(NewMemorySessionStore(), chat, time.Minute, zerolog.Nop())

	out, err := assistant.Handle(context.Background(), "", "potong rambut")
	require.NoError(t, err)
	assert.Equal(t, "Oke, lanjut ya!", out.Message)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := newSession()
	require.NoError(t, store.Save(ctx, session, 10*time.Millisecond))

	_, found, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found, err = store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, found, "expired session is gone")
}
