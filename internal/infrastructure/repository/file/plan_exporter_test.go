package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
)

func planTask(t *testing.T, id, title, prio string, status model.Status, scheduledTime string, virtual bool) *task.Task {
	t.Helper()
	p, err := model.ParsePriority(prio)
	require.NoError(t, err)
	return &task.Task{
		ID:            model.TaskID(id),
		UserID:        "user-1",
		Title:         title,
		Priority:      p,
		Status:        status,
		ScheduledDate: model.MustParseDate("2026-02-02"),
		ScheduledTime: scheduledTime,
		Virtual:       virtual,
	}
}

func TestPlanExporter_WritesPlanAndMeta(t *testing.T) {
	fs := afero.NewMemMapFs()
	exp := NewPlanExporter(fs, "/home/u/.planday/plans")
	exp.Now = func() time.Time { return time.Date(2026, 2, 2, 7, 30, 0, 0, time.UTC) }

	tasks := []*task.Task{
		planTask(t, "TASK-1", "Water plants", "A1", model.StatusCompleted, "08:30", false),
		planTask(t, "TASK-2", "Standup notes", "A2", model.StatusInProgress, "", false),
		planTask(t, "TASK-3", "Plan dinner", "B1", model.StatusPending, "", true),
	}

	dir, err := exp.Export(model.MustParseDate("2026-02-02"), tasks)
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.planday/plans/2026-02-02", filepath.ToSlash(dir))

	plan, err := afero.ReadFile(fs, filepath.Join(dir, "plan.md"))
	require.NoError(t, err)
	want := "# Plan for 2026-02-02\n\n" +
		"- [x] A1 Water plants (08:30)\n" +
		"- [~] A2 Standup notes\n" +
		"- [ ] B1 Plan dinner *\n"
	assert.Equal(t, want, string(plan))

	metaData, err := afero.ReadFile(fs, filepath.Join(dir, "meta.yml"))
	require.NoError(t, err)
	var meta PlanMeta
	require.NoError(t, yaml.Unmarshal(metaData, &meta))
	assert.Equal(t, "2026-02-02", meta.Date)
	assert.Equal(t, 3, meta.Tasks)
	assert.Equal(t, 1, meta.Completed)
	assert.Equal(t, 1, meta.Virtual)
	assert.Equal(t, time.Date(2026, 2, 2, 7, 30, 0, 0, time.UTC), meta.GeneratedAt.UTC())
}

func TestPlanExporter_EmptyDay(t *testing.T) {
	fs := afero.NewMemMapFs()
	exp := NewPlanExporter(fs, "/plans")

	dir, err := exp.Export(model.MustParseDate("2026-02-03"), nil)
	require.NoError(t, err)

	plan, err := afero.ReadFile(fs, filepath.Join(dir, "plan.md"))
	require.NoError(t, err)
	assert.Contains(t, string(plan), "Nothing scheduled.")
}

func TestPlanExporter_RerunOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	exp := NewPlanExporter(fs, "/plans")
	date := model.MustParseDate("2026-02-02")

	_, err := exp.Export(date, []*task.Task{
		planTask(t, "TASK-1", "First draft", "A1", model.StatusPending, "", false),
	})
	require.NoError(t, err)

	dir, err := exp.Export(date, []*task.Task{
		planTask(t, "TASK-1", "Final draft", "A1", model.StatusPending, "", false),
	})
	require.NoError(t, err)

	plan, err := afero.ReadFile(fs, filepath.Join(dir, "plan.md"))
	require.NoError(t, err)
	assert.Contains(t, string(plan), "Final draft")
	assert.NotContains(t, string(plan), "First draft")

	// Atomic writes must not leave temp files behind.
	for _, name := range []string{"plan.md.tmp", "meta.yml.tmp"} {
		exists, err := afero.Exists(fs, filepath.Join(dir, name))
		require.NoError(t, err)
		assert.False(t, exists, name)
	}
}

func TestPlanExporter_RequiresDate(t *testing.T) {
	exp := NewPlanExporter(afero.NewMemMapFs(), "/plans")
	_, err := exp.Export(model.CalendarDate{}, nil)
	assert.Error(t, err)
}

func TestWriteFileAtomic_AppendsTrailingNewline(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteFileAtomic(fs, "/out/x.txt", []byte("abc"), 0644))

	data, err := afero.ReadFile(fs, "/out/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc\n", string(data))
}
