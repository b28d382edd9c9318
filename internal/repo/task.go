package repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BuzzLyutic/taskify-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

type Stats struct {
	ByStatus   map[string]int `json:"by_status"`
	TotalTasks int            `json:"total_tasks"`
}

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	tasks *mongo.Collection
	keys  *mongo.Collection
}

func NewTaskRepo(db *mongo.Database) *TaskRepo { // Конструктор
	return &TaskRepo{
		tasks: db.Collection("tasks"),
		keys:  db.Collection("idempotency_keys"),
	}
}

// now: BSON хранит время с точностью до миллисекунды, поэтому обрезаем сразу,
// чтобы create -> get возвращал одинаковые значения
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	ts := now()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = ts
	t.UpdatedAt = ts

	if _, err := r.tasks.InsertOne(ctx, t); err != nil {
		return model.Task{}, err
	}
	// Перечитываем вставленный документ - возвращаем ровно то, что легло в базу
	return r.Get(ctx, t.ID)
}

func (r *TaskRepo) Get(ctx context.Context, id primitive.ObjectID) (model.Task, error) {
	var t model.Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}
	return normalize(t), nil
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *TaskRepo) ListByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return r.find(ctx, bson.M{"status": status})
}

func (r *TaskRepo) Search(ctx context.Context, query string) ([]model.Task, error) {
	// QuoteMeta - ищем подстроку, а не регулярное выражение
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"description": pattern},
	}})
}

func (r *TaskRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (model.Task, error) {
	set := bson.M{"updated_at": now()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := r.tasks.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return model.Task{}, err
	}
	if res.MatchedCount == 0 {
		return model.Task{}, ErrorNotFound
	}
	return r.Get(ctx, id)
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrorNotFound
	}
	return nil
}

type idempotencyKey struct {
	Key    string             `bson:"_id"`
	TaskID primitive.ObjectID `bson:"task_id"`
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, taskID primitive.ObjectID) error {
	_, err := r.keys.InsertOne(ctx, idempotencyKey{Key: key, TaskID: taskID})
	if mongo.IsDuplicateKeyError(err) { // Ключ уже сохранен параллельным запросом
		return ErrorConflict
	}
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (primitive.ObjectID, error) {
	var k idempotencyKey
	err := r.keys.FindOne(ctx, bson.M{"_id": key}).Decode(&k)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return primitive.NilObjectID, ErrorNotFound
	}
	return k.TaskID, err
}

func (r *TaskRepo) GetStats(ctx context.Context) (Stats, error) {
	cur, err := r.tasks.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	stats := Stats{ByStatus: make(map[string]int)}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[string(model.Status(row.Status).Normalize())] += row.Count
		stats.TotalTasks += row.Count
	}
	return stats, cur.Err()
}

func (r *TaskRepo) find(ctx context.Context, filter bson.M) ([]model.Task, error) {
	cur, err := r.tasks.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := make([]model.Task, 0)
	for cur.Next(ctx) {
		var t model.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		tasks = append(tasks, normalize(t))
	}
	return tasks, cur.Err()
}

// normalize - единственная точка, через которую документы выходят из хранилища
func normalize(t model.Task) model.Task {
	t.Status = t.Status.Normalize()
	return t
}
