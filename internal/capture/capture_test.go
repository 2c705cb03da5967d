package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/logstore"
)

type msg struct {
	to, cc, bcc         []string
	subject, body, html string
}

func (m msg) ToAddresses() []string  { return m.to }
func (m msg) CcAddresses() []string  { return m.cc }
func (m msg) BccAddresses() []string { return m.bcc }
func (m msg) Subject() string        { return m.subject }
func (m msg) Body() string           { return m.body }
func (m msg) AltBody() string        { return m.html }

type fakeStore struct {
	got   []logstore.Fields
	err   error
	panic bool
	dl    bool // saw a deadline
}

func (f *fakeStore) Insert(ctx context.Context, fl logstore.Fields) (int64, error) {
	if f.panic {
		panic("driver exploded")
	}
	_, f.dl = ctx.Deadline()
	f.got = append(f.got, fl)
	return int64(len(f.got)), f.err
}

func TestExtractRecipientTiers(t *testing.T) {
	cases := []struct {
		name string
		m    msg
		want string
	}{
		{"to wins", msg{to: []string{"a@x", "b@x"}, cc: []string{"c@x"}}, "a@x, b@x"},
		{"cc when no to", msg{cc: []string{"c@x"}, bcc: []string{"d@x"}}, "c@x"},
		{"bcc last", msg{to: []string{" "}, bcc: []string{"d@x"}}, "d@x"},
		{"none", msg{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.m).ToEmail)
		})
	}
}

func TestExtractBodyFallback(t *testing.T) {
	f := Extract(msg{to: []string{"a@x"}, subject: "S", html: "alt"})
	assert.Equal(t, "alt", f.Body)
	assert.Equal(t, logstore.StatusSent, f.Status)

	f = Extract(msg{to: []string{"a@x"}, body: "main", html: "alt"})
	assert.Equal(t, "main", f.Body)
}

func TestCaptureWritesRowUnderTimeout(t *testing.T) {
	st := &fakeStore{}
	c := New(st, WithLogger(zap.NewNop().Sugar()), WithTimeout(time.Second))

	c.Capture(context.Background(), msg{to: []string{"a@x"}, subject: "S", body: "B"})

	require.Len(t, st.got, 1)
	assert.Equal(t, logstore.Fields{ToEmail: "a@x", Subject: "S", Body: "B", Status: "Sent"}, st.got[0])
	assert.True(t, st.dl)
}

func TestCaptureSwallowsFailures(t *testing.T) {
	nop := WithLogger(zap.NewNop().Sugar())

	assert.NotPanics(t, func() {
		New(&fakeStore{err: errors.New("db down")}, nop).Capture(context.Background(), msg{})
	})
	assert.NotPanics(t, func() {
		New(&fakeStore{panic: true}, nop).Capture(context.Background(), msg{})
	})
}

func TestCaptureHonoursSwitch(t *testing.T) {
	var on atomic.Bool
	st := &fakeStore{}
	hook := New(st, WithLogger(zap.NewNop().Sugar()), WithSwitch(on.Load)).Hook()

	hook(context.Background(), msg{to: []string{"a@x"}})
	assert.Empty(t, st.got)

	on.Store(true)
	hook(context.Background(), msg{to: []string{"a@x"}})
	assert.Len(t, st.got, 1)
}
