package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var mergeBase = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func adhoc(id, name string, updated time.Time) models.AdHocTask {
	return models.AdHocTask{Task: models.Task{
		ID:        id,
		Kind:      models.KindAdHoc,
		Name:      name,
		Status:    models.StatusToDo,
		CreatedAt: mergeBase,
		UpdatedAt: updated,
	}}
}

func ids[T Mergeable](tasks []T) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Base().ID
	}
	return out
}

func TestMergeTasks_IncomingNewerWins(t *testing.T) {
	existing := []models.AdHocTask{adhoc("t1", "old", mergeBase)}
	incoming := []models.AdHocTask{adhoc("t1", "new", mergeBase.Add(time.Hour))}

	merged := MergeTasks(existing, incoming)
	assert.Len(t, merged, 1)
	assert.Equal(t, "new", merged[0].Name)
}

func TestMergeTasks_ExistingNewerWins(t *testing.T) {
	existing := []models.AdHocTask{adhoc("t1", "old", mergeBase.Add(time.Hour))}
	incoming := []models.AdHocTask{adhoc("t1", "new", mergeBase)}

	merged := MergeTasks(existing, incoming)
	assert.Equal(t, "old", merged[0].Name)
}

func TestMergeTasks_TieKeepsExisting(t *testing.T) {
	existing := []models.AdHocTask{adhoc("t1", "existing", mergeBase)}
	incoming := []models.AdHocTask{adhoc("t1", "incoming", mergeBase)}

	merged := MergeTasks(existing, incoming)
	assert.Equal(t, "existing", merged[0].Name)
}

func TestMergeTasks_OrderExistingThenNew(t *testing.T) {
	existing := []models.AdHocTask{
		adhoc("b", "b", mergeBase),
		adhoc("a", "a", mergeBase),
	}
	incoming := []models.AdHocTask{
		adhoc("d", "d", mergeBase),
		adhoc("a", "a2", mergeBase.Add(time.Minute)),
		adhoc("c", "c", mergeBase),
	}

	merged := MergeTasks(existing, incoming)
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids(merged))
	assert.Equal(t, "a2", merged[1].Name)
}

func TestMergeTasks_EmptyInputs(t *testing.T) {
	assert.Empty(t, MergeTasks[models.AdHocTask](nil, nil))

	only := []models.AdHocTask{adhoc("x", "x", mergeBase)}
	assert.Equal(t, only, MergeTasks(nil, only))
	assert.Equal(t, only, MergeTasks(only, nil))
}

func TestMergeTasks_ProjectTasks(t *testing.T) {
	existing := []models.ProjectTask{{
		Task:      models.Task{ID: "p1", Name: "Deploy", Status: models.StatusInProgress, UpdatedAt: mergeBase},
		SquadName: "Alpha",
	}}
	incoming := []models.ProjectTask{{
		Task:      models.Task{ID: "p1", Name: "Deploy", Status: models.StatusComplete, UpdatedAt: mergeBase.Add(24 * time.Hour)},
		SquadName: "Alpha",
	}}

	merged := MergeTasks(existing, incoming)
	assert.Equal(t, models.StatusComplete, merged[0].Status)
}
