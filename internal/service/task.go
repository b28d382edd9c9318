package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BuzzLyutic/taskify-api/internal/model"
	"github.com/BuzzLyutic/taskify-api/internal/repo"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrEmptyUpdate = errors.New("no fields to update")
	ErrInvalidID   = errors.New("invalid task id format")
)

// ValidationError несет имя поля, чтобы клиент видел, что именно не прошло проверку
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, req model.TaskCreate, idempKey string) (model.Task, error) {
	if err := validateCreate(req); err != nil { // Валидация до любого обращения к хранилищу
		return model.Task{}, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		if existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey); err == nil {
			return s.repo.Get(ctx, existingID)
		}
	}

	status := req.Status
	if status == "" {
		status = model.StatusPending
	}

	task, err := s.repo.Create(ctx, model.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	})
	if err != nil {
		return task, err
	}

	if idempKey != "" {
		s.repo.SaveIdempotencyKey(ctx, idempKey, task.ID)
	}

	return task, nil
}

func (s *TaskService) Get(ctx context.Context, rawID string) (model.Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

func (s *TaskService) FilterByStatus(ctx context.Context, rawStatus string) ([]model.Task, error) {
	status := model.Status(rawStatus)
	if !status.Valid() {
		return nil, invalid("status", "must be one of pending, in_progress, completed, cancelled")
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *TaskService) Search(ctx context.Context, query string) ([]model.Task, error) {
	if query == "" {
		return nil, invalid("q", "query parameter is required")
	}
	return s.repo.Search(ctx, query)
}

func (s *TaskService) Update(ctx context.Context, rawID string, req model.TaskUpdate) (model.Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return model.Task{}, err
	}

	fields := make(map[string]any)
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return model.Task{}, err
		}
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return model.Task{}, err
		}
		fields["description"] = *req.Description
	}
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			return model.Task{}, err
		}
		fields["status"] = *req.Status
	}

	if len(fields) == 0 { // Пустое обновление отсекаем до похода в хранилище
		return model.Task{}, ErrEmptyUpdate
	}

	return s.repo.UpdateFields(ctx, id, fields)
}

func (s *TaskService) UpdateStatus(ctx context.Context, rawID string, req model.TaskStatusUpdate) (model.Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return model.Task{}, err
	}
	if req.Status == "" {
		return model.Task{}, invalid("status", "is required")
	}
	if err := validateStatus(req.Status); err != nil {
		return model.Task{}, err
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{"status": req.Status})
}

func (s *TaskService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.repo.GetStats(ctx)
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func validateCreate(req model.TaskCreate) error {
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return err
		}
	}
	if req.Status != "" {
		return validateStatus(req.Status)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > 100 {
		return invalid("title", "must be at most 100 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > 500 {
		return invalid("description", "must be at most 500 characters")
	}
	return nil
}

func validateStatus(status model.Status) error {
	if !status.Valid() {
		return invalid("status", "must be one of pending, in_progress, completed, cancelled")
	}
	return nil
}
