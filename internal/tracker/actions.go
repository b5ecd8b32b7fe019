package tracker

import (
	"context"
	"fmt"

	"github.com/sadopc/tracklet/internal/logger"
)

// ConsumePendingAction takes the action waiting in src, if any, and applies
// it. It is meant to run once each time the app comes to the foreground.
func (t *Tracker) ConsumePendingAction(ctx context.Context, src ActionSource) error {
	action, err := src.TakePendingAction()
	if err != nil {
		return fmt.Errorf("take pending action: %w", err)
	}
	if action == nil {
		return nil
	}
	logger.Info("applying pending action", "kind", action.Kind, "task", action.TaskID)

	switch action.Kind {
	case ActionStart:
		// Unknown ids are recorded by StartTaskByID and otherwise ignored.
		_ = t.StartTaskByID(ctx, action.TaskID)
	case ActionStop:
		t.StopTaskByID(ctx, action.TaskID)
	default:
		return fmt.Errorf("unknown pending action %q", action.Kind)
	}
	return nil
}

// PublishFavorites loads up to MaxFavorites favorite tasks, pushes them to
// the widget sink and returns them.
func (t *Tracker) PublishFavorites(ctx context.Context) ([]FavoriteTask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := t.repo.FavoriteTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	favs := make([]FavoriteTask, 0, MaxFavorites)
	for _, task := range tasks {
		if len(favs) == MaxFavorites {
			break
		}
		favs = append(favs, FavoriteTask{TaskID: task.ID, TaskName: task.Name, Color: task.Color})
	}
	if t.widget != nil {
		if err := t.widget.PublishFavorites(favs); err != nil {
			logger.Warn("publish favorites", "err", err)
		}
	}
	return favs, nil
}
