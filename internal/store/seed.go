package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"taskflow/internal/model"
)

// Seed is the initial content of the in-memory stores.
type Seed struct {
	Categories []model.Category
	Tasks      []model.Task
}

type seedFile struct {
	Categories []seedCategory `toml:"categories"`
	Tasks      []seedTask     `toml:"tasks"`
}

type seedCategory struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Color string `toml:"color"`
	Icon  string `toml:"icon"`
}

type seedTask struct {
	ID          string `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Category    string `toml:"category"`
	Priority    string `toml:"priority"`
	Due         string `toml:"due"`
	Completed   bool   `toml:"completed"`
	Archived    bool   `toml:"archived"`
}

// LoadSeed reads a TOML seed file. Dates are YYYY-MM-DD in loc or RFC 3339.
func LoadSeed(path string, now time.Time) (Seed, error) {
	var f seedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return f.build(now)
}

// ParseSeed is LoadSeed for in-memory content.
func ParseSeed(data string, now time.Time) (Seed, error) {
	var f seedFile
	if _, err := toml.Decode(data, &f); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return f.build(now)
}

func (f seedFile) build(now time.Time) (Seed, error) {
	var seed Seed
	known := make(map[string]bool)

	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return Seed{}, fmt.Errorf("category %d: name is required", i+1)
		}
		cat := model.Category{
			ID:    c.ID,
			Name:  c.Name,
			Color: c.Color,
			Icon:  c.Icon,
			Order: i,
		}
		if cat.ID == "" {
			cat.ID = uuid.NewString()
		}
		if cat.Color == "" {
			cat.Color = model.DefaultColors[i%len(model.DefaultColors)]
		}
		if cat.Icon == "" {
			cat.Icon = model.DefaultIcons[0]
		}
		known[cat.ID] = true
		seed.Categories = append(seed.Categories, cat)
	}

	for i, t := range f.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return Seed{}, fmt.Errorf("task %d: title is required", i+1)
		}
		task := model.Task{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    model.PriorityMedium,
			Completed:   t.Completed,
			Archived:    t.Archived,
			CreatedAt:   now,
		}
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if t.Priority != "" {
			p, err := model.ParsePriority(t.Priority)
			if err != nil {
				return Seed{}, fmt.Errorf("task %d: %w", i+1, err)
			}
			task.Priority = p
		}
		if t.Category != "" {
			if !known[t.Category] {
				return Seed{}, fmt.Errorf("task %d: unknown category %q", i+1, t.Category)
			}
			task.CategoryID = model.Ptr(t.Category)
		}
		if t.Due != "" {
			due, err := parseSeedDate(t.Due, now.Location())
			if err != nil {
				return Seed{}, fmt.Errorf("task %d: %w", i+1, err)
			}
			task.DueDate = &due
		}
		if task.Completed {
			task.CompletedAt = model.Ptr(now)
		}
		seed.Tasks = append(seed.Tasks, task)
	}
	return seed, nil
}

func parseSeedDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", raw)
	}
	return t, nil
}
