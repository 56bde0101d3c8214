package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventUserLoggedIn, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.SubjectID)
		return errors.New("boom")
	})
	d.Subscribe(EventUserLoggedIn, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventUserLoggedOut, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	ev := New(EventUserLoggedIn, time.Now())
	ev.SubjectID = "u-1"
	err := d.Publish(context.Background(), ev)

	require.EqualError(t, err, "boom")
	require.Equal(t, []string{"first:u-1", "second:u-1"}, calls)
	require.NotEmpty(t, ev.ID)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), New(EventPasswordReset, time.Now())))
}
