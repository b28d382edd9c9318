package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BuzzLyutic/taskify-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id primitive.ObjectID) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Task, error)
	Search(ctx context.Context, query string) ([]model.Task, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (model.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SaveIdempotencyKey(ctx context.Context, key string, taskID primitive.ObjectID) error
	GetIdempotencyKey(ctx context.Context, key string) (primitive.ObjectID, error)
	GetStats(ctx context.Context) (Stats, error)
}
