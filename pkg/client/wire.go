package client

import (
	"time"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// Wire DTOs shared by HTTPTaskAPI and the server. The engine types stay
// free of transport tags; conversion happens at this boundary.

// SubmitRequest is the POST /tasks body.
type SubmitRequest struct {
	Preset  string         `json:"preset"`
	Options map[string]any `json:"options,omitempty"`
}

// SubmitResponse mirrors api.SubmitReceipt.
type SubmitResponse struct {
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Preset  string `json:"preset"`
}

// ToReceipt converts the wire form back to the engine type.
func (r SubmitResponse) ToReceipt() *api.SubmitReceipt {
	return &api.SubmitReceipt{
		TaskID:  r.TaskID,
		Status:  api.Status(r.Status),
		Message: r.Message,
		Preset:  r.Preset,
	}
}

// NewSubmitResponse converts an engine receipt to its wire form.
func NewSubmitResponse(rc *api.SubmitReceipt) SubmitResponse {
	return SubmitResponse{
		TaskID:  rc.TaskID,
		Status:  string(rc.Status),
		Message: rc.Message,
		Preset:  rc.Preset,
	}
}

// ItemCounterDTO mirrors api.ItemCounter.
type ItemCounterDTO struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// TaskResultDTO mirrors api.TaskResult.
type TaskResultDTO struct {
	ItemsProcessed int      `json:"itemsProcessed"`
	ItemsCreated   int      `json:"itemsCreated"`
	Errors         []string `json:"errors,omitempty"`
	ProcessedItems []any    `json:"processedItems,omitempty"`
}

// TaskDTO mirrors api.Task.
type TaskDTO struct {
	ID           string          `json:"id"`
	Preset       string          `json:"preset"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	Message      string          `json:"message"`
	CurrentStep  *string         `json:"currentStep,omitempty"`
	ItemProgress *ItemCounterDTO `json:"itemProgress,omitempty"`
	Result       *TaskResultDTO  `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ToTask converts the wire form back to the engine type.
func (d TaskDTO) ToTask() *api.Task {
	t := &api.Task{
		ID:          d.ID,
		Preset:      d.Preset,
		Status:      api.Status(d.Status),
		Progress:    d.Progress,
		Message:     d.Message,
		CurrentStep: d.CurrentStep,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.ItemProgress != nil {
		t.ItemProgress = &api.ItemCounter{
			Current: d.ItemProgress.Current,
			Total:   d.ItemProgress.Total,
		}
	}
	if d.Result != nil {
		t.Result = &api.TaskResult{
			ItemsProcessed: d.Result.ItemsProcessed,
			ItemsCreated:   d.Result.ItemsCreated,
			Errors:         d.Result.Errors,
			ProcessedItems: d.Result.ProcessedItems,
		}
	}
	return t
}

// NewTaskDTO converts an engine task to its wire form.
func NewTaskDTO(t *api.Task) TaskDTO {
	d := TaskDTO{
		ID:          t.ID,
		Preset:      t.Preset,
		Status:      string(t.Status),
		Progress:    t.Progress,
		Message:     t.Message,
		CurrentStep: t.CurrentStep,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.ItemProgress != nil {
		d.ItemProgress = &ItemCounterDTO{
			Current: t.ItemProgress.Current,
			Total:   t.ItemProgress.Total,
		}
	}
	if t.Result != nil {
		d.Result = &TaskResultDTO{
			ItemsProcessed: t.Result.ItemsProcessed,
			ItemsCreated:   t.Result.ItemsCreated,
			Errors:         t.Result.Errors,
			ProcessedItems: t.Result.ProcessedItems,
		}
	}
	return d
}

// ErrorResponse is the JSON body of non-2xx server answers.
type ErrorResponse struct {
	Error string `json:"error"`
}
