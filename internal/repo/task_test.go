// internal/repo/task_test.go
package repo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BuzzLyutic/taskify-api/internal/model"
)

func setupTestDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Disconnect(ctx) })

	db := client.Database(fmt.Sprintf("taskify_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { db.Drop(ctx) })

	return db
}

func strptr(s string) *string { return &s }

func TestTaskRepo_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		Title:       "Test Task",
		Description: strptr("d"),
		Status:      model.StatusPending,
	})
	require.NoError(t, err)

	assert.False(t, created.ID.IsZero())
	assert.Equal(t, "Test Task", created.Title)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Round-trip: читаем то же самое, что вернул Create
	fetched, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestTaskRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)

	_, err := repo.Get(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrorNotFound)
}

func TestTaskRepo_UpdateFields_Sparse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{
		Title:       "Original",
		Description: strptr("original description"),
		Status:      model.StatusPending,
	})
	require.NoError(t, err)

	updated, err := repo.UpdateFields(ctx, created.ID, map[string]any{
		"description": "new description",
	})
	require.NoError(t, err)

	// Не переданные поля остаются нетронутыми
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, model.StatusPending, updated.Status)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "new description", *updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, !updated.UpdatedAt.Before(created.UpdatedAt), "updated_at should advance")
}

func TestTaskRepo_UpdateFields_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)

	_, err := repo.UpdateFields(context.Background(), primitive.NewObjectID(), map[string]any{
		"title": "x",
	})
	assert.ErrorIs(t, err, ErrorNotFound)
}

func TestTaskRepo_Delete_Idempotence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Task{Title: "To Delete", Status: model.StatusPending})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrorNotFound, "second delete should signal not-found")
}

func TestTaskRepo_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Task{Title: "API Documentation", Status: model.StatusPending})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{
		Title:       "Setup environment",
		Description: strptr("API development environment setup"),
		Status:      model.StatusPending,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{Title: "Unrelated", Status: model.StatusPending})
	require.NoError(t, err)

	t.Run("case-insensitive union over title and description", func(t *testing.T) {
		tasks, err := repo.Search(ctx, "api")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("no matches", func(t *testing.T) {
		tasks, err := repo.Search(ctx, "nonexistent")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("regex metacharacters are literal", func(t *testing.T) {
		tasks, err := repo.Search(ctx, "A.I")
		require.NoError(t, err)
		assert.Empty(t, tasks, "dot should not match as wildcard")
	})
}

func TestTaskRepo_ListByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Task{Title: "Pending", Status: model.StatusPending})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Task{Title: "Done", Status: model.StatusCompleted})
	require.NoError(t, err)

	tasks, err := repo.ListByStatus(ctx, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Pending", tasks[0].Title)
}

func TestTaskRepo_StatusNormalization(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	// Документ с легаси-статусом, записанный мимо валидации
	res, err := db.Collection("tasks").InsertOne(ctx, bson.M{
		"title":      "Legacy Task",
		"status":     "archived",
		"created_at": time.Now().UTC(),
		"updated_at": time.Now().UTC(),
	})
	require.NoError(t, err)

	task, err := repo.Get(ctx, res.InsertedID.(primitive.ObjectID))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, task.Status, "unknown stored status should read as pending")

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.StatusPending, tasks[0].Status)
}

func TestTaskRepo_IdempotencyKeys(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	taskID := primitive.NewObjectID()

	_, err := repo.GetIdempotencyKey(ctx, "missing-key")
	assert.ErrorIs(t, err, ErrorNotFound)

	require.NoError(t, repo.SaveIdempotencyKey(ctx, "key-1", taskID))

	got, err := repo.GetIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, taskID, got)

	// Повторное сохранение того же ключа
	err = repo.SaveIdempotencyKey(ctx, "key-1", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrorConflict)
}

func TestTaskRepo_GetStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, model.Task{Title: fmt.Sprintf("Task %d", i), Status: model.StatusPending})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, model.Task{Title: "Done", Status: model.StatusCompleted})
	require.NoError(t, err)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 3, stats.ByStatus["pending"])
	assert.Equal(t, 1, stats.ByStatus["completed"])
}
