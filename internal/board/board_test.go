package board

import (
	"errors"
	"testing"

	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/types"
	"gorm.io/gorm"
)

func task(id uint, status string) models.Task {
	return models.Task{
		Model:  gorm.Model{ID: id},
		Title:  "task",
		Status: status,
	}
}

func laneIDs(b *Board, lane Lane) []uint {
	var ids []uint
	for _, t := range b.Lane(lane) {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestBuildGroupsByStatus(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
		task(2, types.TaskStatusDone),
		task(3, types.TaskStatusTodo),
		task(4, types.TaskStatusInProgress),
		task(5, "Archived"), // unknown status stays off the board
	})

	todo := laneIDs(b, LaneTodo)

	if len(todo) != 2 || todo[0] != 1 || todo[1] != 3 {
		t.Fatalf("Todo lane = %v, want [1 3]", todo)
	}

	if got := laneIDs(b, LaneInProgress); len(got) != 1 || got[0] != 4 {
		t.Fatalf("In Progress lane = %v, want [4]", got)
	}

	if got := laneIDs(b, LaneDone); len(got) != 1 || got[0] != 2 {
		t.Fatalf("Done lane = %v, want [2]", got)
	}
}

func TestApplyMovesBetweenLanes(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
		task(2, types.TaskStatusTodo),
		task(3, types.TaskStatusDone),
	})

	revert, changed, err := b.Apply(Move{
		TaskID:           2,
		Source:           LaneTodo,
		Destination:      LaneDone,
		DestinationIndex: 0,
	})

	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if !changed {
		t.Fatal("cross-lane move must report a change")
	}

	if got := laneIDs(b, LaneTodo); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Todo lane = %v, want [1]", got)
	}

	done := b.Lane(LaneDone)

	if len(done) != 2 || done[0].ID != 2 || done[1].ID != 3 {
		t.Fatalf("Done lane = %v, want task 2 on top of 3", laneIDs(b, LaneDone))
	}

	if done[0].Status != types.TaskStatusDone {
		t.Fatalf("moved task status = %q, want %q", done[0].Status, types.TaskStatusDone)
	}

	// A failed server write rolls the board back to where it was.
	revert()

	if got := laneIDs(b, LaneTodo); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("Todo lane after revert = %v, want [1 2]", got)
	}

	if got := laneIDs(b, LaneDone); len(got) != 1 || got[0] != 3 {
		t.Fatalf("Done lane after revert = %v, want [3]", got)
	}
}

func TestApplyNoOpGuard(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
		task(2, types.TaskStatusTodo),
	})

	revert, changed, err := b.Apply(Move{
		TaskID:           2,
		Source:           LaneTodo,
		Destination:      LaneTodo,
		DestinationIndex: 1,
	})

	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if changed {
		t.Fatal("dropping a task exactly where it was must be a no-op")
	}

	if revert != nil {
		t.Fatal("no-op must not produce a revert closure")
	}
}

func TestApplySameLaneReorder(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
		task(2, types.TaskStatusTodo),
		task(3, types.TaskStatusTodo),
	})

	_, changed, err := b.Apply(Move{
		TaskID:           1,
		Source:           LaneTodo,
		Destination:      LaneTodo,
		DestinationIndex: 2,
	})

	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if !changed {
		t.Fatal("same-lane reorder to a new index is still a local change")
	}

	if got := laneIDs(b, LaneTodo); len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("Todo lane = %v, want [2 3 1]", got)
	}
}

func TestApplyClampsDestinationIndex(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
	})

	_, changed, err := b.Apply(Move{
		TaskID:           1,
		Source:           LaneTodo,
		Destination:      LaneDone,
		DestinationIndex: 99,
	})

	if err != nil || !changed {
		t.Fatalf("Apply failed: changed=%v err=%v", changed, err)
	}

	if got := laneIDs(b, LaneDone); len(got) != 1 || got[0] != 1 {
		t.Fatalf("Done lane = %v, want [1]", got)
	}
}

func TestApplyErrors(t *testing.T) {
	b := Build([]models.Task{
		task(1, types.TaskStatusTodo),
	})

	_, _, err := b.Apply(Move{TaskID: 1, Source: "Backlog", Destination: LaneDone})

	if !errors.Is(err, ErrUnknownLane) {
		t.Fatalf("expected ErrUnknownLane, got %v", err)
	}

	_, _, err = b.Apply(Move{TaskID: 1, Source: LaneDone, Destination: LaneTodo})

	if !errors.Is(err, ErrTaskNotInLane) {
		t.Fatalf("expected ErrTaskNotInLane, got %v", err)
	}
}
