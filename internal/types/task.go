package types

// Task statuses double as the board lane identifiers, so the wire values
// match the lane names the client renders.
const (
	TaskStatusTodo       = "Todo"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

const (
	TaskPriorityLow    = "Low"
	TaskPriorityMedium = "Medium"
	TaskPriorityHigh   = "High"
)

// FilterAll disables a priority or assignee filter when passed as its value.
const FilterAll = "All"

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
