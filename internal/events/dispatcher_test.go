package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventEmployeeDeleted, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.EmployeeID)
		return errors.New("first failed")
	})
	d.Subscribe(EventEmployeeDeleted, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.EmployeeID)
		return nil
	})
	d.Subscribe(EventEmployeePictureReplaced, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventEmployeeDeleted, EmployeeID: "42"})
	require.Error(t, err)
	assert.Equal(t, []string{"first:42", "second:42"}, got)
}

func TestDispatcherWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventEmployeeDeleted}))
}
