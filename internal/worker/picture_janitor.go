package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/events"
)

// PictureRemover deletes stored profile pictures by name.
type PictureRemover interface {
	Remove(name string) error
}

// PictureJanitor removes pictures released by deleted or updated employees.
type PictureJanitor struct {
	dispatcher events.Dispatcher
	pictures   PictureRemover
	logger     *zap.Logger
}

// NewPictureJanitor creates the janitor.
func NewPictureJanitor(dispatcher events.Dispatcher, pictures PictureRemover, logger *zap.Logger) *PictureJanitor {
	return &PictureJanitor{dispatcher: dispatcher, pictures: pictures, logger: logger}
}

// RegisterHandlers subscribes to events.
func (j *PictureJanitor) RegisterHandlers() {
	if j.dispatcher == nil || j.pictures == nil {
		return
	}
	j.dispatcher.Subscribe(events.EventEmployeeDeleted, j.handlePictureReleased)
	j.dispatcher.Subscribe(events.EventEmployeePictureReplaced, j.handlePictureReleased)
}

func (j *PictureJanitor) handlePictureReleased(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PictureReleasedPayload)
	if !ok || payload.Filename == "" {
		return nil
	}
	if err := j.pictures.Remove(payload.Filename); err != nil {
		j.logger.Warn("remove released picture",
			zap.String("employee_id", event.EmployeeID),
			zap.String("file", payload.Filename),
			zap.Error(err))
		return err
	}
	j.logger.Debug("released picture removed", zap.String("employee_id", event.EmployeeID), zap.String("file", payload.Filename))
	return nil
}

// StartPictureJanitor registers the janitor handlers.
func StartPictureJanitor(dispatcher events.Dispatcher, pictures PictureRemover, logger *zap.Logger) *PictureJanitor {
	janitor := NewPictureJanitor(dispatcher, pictures, logger)
	janitor.RegisterHandlers()
	return janitor
}
