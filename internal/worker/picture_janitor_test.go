package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/events"
)

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(name string) error {
	r.removed = append(r.removed, name)
	return r.err
}

func TestPictureJanitorRemovesReleasedPictures(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	remover := &recordingRemover{}
	StartPictureJanitor(dispatcher, remover, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventEmployeeDeleted,
		Payload: events.PictureReleasedPayload{Filename: "1-a.png"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventEmployeePictureReplaced,
		Payload: events.PictureReleasedPayload{Filename: "2-b.png"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:    events.EventEmployeeDeleted,
		Payload: events.PictureReleasedPayload{},
	}))

	assert.Equal(t, []string{"1-a.png", "2-b.png"}, remover.removed)
}

func TestPictureJanitorReportsRemoveFailure(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	remover := &recordingRemover{err: errors.New("read-only filesystem")}
	StartPictureJanitor(dispatcher, remover, zap.NewNop())

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventEmployeeDeleted,
		Payload: events.PictureReleasedPayload{Filename: "1-a.png"},
	})
	assert.Error(t, err)
}
