// Package board models the three-lane task board. It owns the grouping of
// tasks into lanes and the drag-move contract: a no-op guard, an optimistic
// apply, and a revert closure so a failed server write can roll the lane
// state back.
package board

import (
	"errors"

	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/types"
)

type Lane string

const (
	LaneTodo       Lane = types.TaskStatusTodo
	LaneInProgress Lane = types.TaskStatusInProgress
	LaneDone       Lane = types.TaskStatusDone
)

// Lanes returns the fixed lane order the board renders in.
func Lanes() []Lane {
	return []Lane{LaneTodo, LaneInProgress, LaneDone}
}

func ValidLane(lane Lane) bool {
	return types.ValidTaskStatus(string(lane))
}

var (
	ErrUnknownLane   = errors.New("unknown lane")
	ErrTaskNotInLane = errors.New("task not in source lane")
)

// Move is a drag-release event: which task left which lane for which slot.
type Move struct {
	TaskID           uint `json:"task_id" binding:"required"`
	Source           Lane `json:"source" binding:"required"`
	Destination      Lane `json:"destination" binding:"required"`
	DestinationIndex int  `json:"destination_index"`
}

type Board struct {
	lanes map[Lane][]models.Task
}

// Build groups tasks into lanes, preserving the order they were given in.
// Tasks carrying an unknown status are dropped rather than invented a lane.
func Build(tasks []models.Task) *Board {
	b := &Board{lanes: make(map[Lane][]models.Task, len(Lanes()))}

	for _, lane := range Lanes() {
		b.lanes[lane] = []models.Task{}
	}

	for _, task := range tasks {
		lane := Lane(task.Status)

		if !ValidLane(lane) {
			continue
		}

		b.lanes[lane] = append(b.lanes[lane], task)
	}

	return b
}

// Lane returns the tasks currently in a lane, top first.
func (b *Board) Lane(lane Lane) []models.Task {
	return b.lanes[lane]
}

// Apply performs the optimistic local update for a move. It returns false
// with no error when the move is a no-op (same lane, same index), meaning the
// caller should skip the server call entirely. On a real move the returned
// revert closure restores the previous lane state, for callers whose server
// write fails afterwards.
func (b *Board) Apply(move Move) (revert func(), changed bool, err error) {
	if !ValidLane(move.Source) || !ValidLane(move.Destination) {
		return nil, false, ErrUnknownLane
	}

	source := b.lanes[move.Source]
	sourceIndex := -1

	for i, task := range source {
		if task.ID == move.TaskID {
			sourceIndex = i
			break
		}
	}

	if sourceIndex == -1 {
		return nil, false, ErrTaskNotInLane
	}

	if move.Destination == move.Source && move.DestinationIndex == sourceIndex {
		return nil, false, nil
	}

	prevSource := snapshot(source)
	prevDest := snapshot(b.lanes[move.Destination])

	task := source[sourceIndex]
	b.lanes[move.Source] = append(source[:sourceIndex:sourceIndex], source[sourceIndex+1:]...)

	task.Status = string(move.Destination)
	dest := b.lanes[move.Destination]

	index := move.DestinationIndex

	if index < 0 {
		index = 0
	}

	if index > len(dest) {
		index = len(dest)
	}

	dest = append(dest[:index:index], append([]models.Task{task}, dest[index:]...)...)
	b.lanes[move.Destination] = dest

	revert = func() {
		b.lanes[move.Source] = prevSource
		b.lanes[move.Destination] = prevDest
	}

	return revert, true, nil
}

func snapshot(tasks []models.Task) []models.Task {
	copied := make([]models.Task, len(tasks))
	copy(copied, tasks)
	return copied
}
