package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskSessionExpire = "booking.session.expire"

type SessionExpirePayload struct {
	SessionID string `json:"sessionId"`
}

func NewSessionExpireTask(payload SessionExpirePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionExpire, data), nil
}

func ParseSessionExpirePayload(task *asynq.Task) (SessionExpirePayload, error) {
	var payload SessionExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SessionExpirePayload{}, err
	}
	return payload, nil
}

// sessionExpireTaskID keys the task by session so a retried schedule is
// deduplicated by asynq.
func sessionExpireTaskID(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", TaskSessionExpire, sessionID)
}
