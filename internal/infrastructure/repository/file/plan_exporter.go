// Package file exports resolved day plans to the filesystem.
//
// Exports go through an afero.Fs so tests run against an in-memory
// filesystem, and every file is written atomically.
package file

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/planday/planday/internal/domain/model"
	"github.com/planday/planday/internal/domain/model/task"
)

// PlanExporter writes a day's resolved task list under <Root>/<date>/.
type PlanExporter struct {
	Fs   afero.Fs
	Root string // plans directory, e.g. ~/.planday/plans
	Now  func() time.Time
}

// NewPlanExporter creates an exporter rooted at the given plans directory.
func NewPlanExporter(fs afero.Fs, root string) *PlanExporter {
	return &PlanExporter{Fs: fs, Root: root, Now: time.Now}
}

// PlanMeta is the sidecar metadata written next to each exported plan.
type PlanMeta struct {
	Date        string    `yaml:"date"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Tasks       int       `yaml:"tasks"`
	Completed   int       `yaml:"completed"`
	Virtual     int       `yaml:"virtual"`
}

// Export renders tasks (already resolved and priority-ordered) into
// plan.md plus meta.yml and returns the directory written to.
func (e *PlanExporter) Export(date model.CalendarDate, tasks []*task.Task) (string, error) {
	if date.IsZero() {
		return "", fmt.Errorf("export date is required")
	}

	dir := filepath.Join(e.Root, date.String())

	plan := renderPlan(date, tasks)
	if err := WriteFileAtomic(e.Fs, filepath.Join(dir, "plan.md"), []byte(plan), 0644); err != nil {
		return "", fmt.Errorf("write plan.md: %w", err)
	}

	meta := PlanMeta{
		Date:        date.String(),
		GeneratedAt: e.Now().UTC(),
		Tasks:       len(tasks),
	}
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			meta.Completed++
		}
		if t.Virtual {
			meta.Virtual++
		}
	}
	metaData, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal meta: %w", err)
	}
	if err := WriteFileAtomic(e.Fs, filepath.Join(dir, "meta.yml"), metaData, 0644); err != nil {
		return "", fmt.Errorf("write meta.yml: %w", err)
	}

	return dir, nil
}

func renderPlan(date model.CalendarDate, tasks []*task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan for %s\n\n", date)

	if len(tasks) == 0 {
		b.WriteString("Nothing scheduled.\n")
		return b.String()
	}

	for _, t := range tasks {
		b.WriteString("- ")
		b.WriteString(checkbox(t.Status))
		fmt.Fprintf(&b, " %s %s", t.Priority, t.Title)
		if t.ScheduledTime != "" {
			fmt.Fprintf(&b, " (%s)", t.ScheduledTime)
		}
		if t.Virtual {
			b.WriteString(" *")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func checkbox(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "[x]"
	case model.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}
