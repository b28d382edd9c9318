package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BuzzLyutic/taskify-api/internal/model"
	"github.com/BuzzLyutic/taskify-api/internal/repo"
)

// SetupTestDB создает тестовую БД с помощью testcontainers
func SetupTestDB(t *testing.T) (*mongo.Database, func()) {
	t.Helper()
	ctx := context.Background()

	// Создаем MongoDB контейнер
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start mongodb container: %v", err)
	}

	connStr, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connStr))
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	db := client.Database("taskify_test")

	cleanup := func() {
		client.Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// DropCollections очищает коллекции между тестами
func DropCollections(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx := context.Background()

	for _, name := range []string{"tasks", "idempotency_keys"} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			t.Fatalf("Failed to drop collection %s: %v", name, err)
		}
	}
}

// SeedTasks создает тестовые задачи
func SeedTasks(t *testing.T, db *mongo.Database, count int) []model.Task {
	t.Helper()
	ctx := context.Background()

	taskRepo := repo.NewTaskRepo(db)
	tasks := make([]model.Task, 0, count)
	for i := 0; i < count; i++ {
		task, err := taskRepo.Create(ctx, model.Task{
			Title:  fmt.Sprintf("Task %d", i+1),
			Status: model.StatusPending,
		})
		if err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
		tasks = append(tasks, task)
	}

	return tasks
}
