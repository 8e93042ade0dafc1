package store

import (
	"strings"
	"testing"
	"time"
)

const sampleSeed = `
[[categories]]
id = "work"
name = "Work"
icon = "Briefcase"

[[categories]]
name = "Home"

[[tasks]]
title = "Buy milk"
category = "work"
priority = "high"
due = "2024-03-01"

[[tasks]]
title = "Old report"
completed = true
archived = true
`

func TestParseSeed(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seed, err := ParseSeed(sampleSeed, now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(seed.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(seed.Categories))
	}
	home := seed.Categories[1]
	if home.ID == "" || home.Order != 1 || home.Color == "" || home.Icon != "Tag" {
		t.Errorf("expected defaults on Home, got %+v", home)
	}

	if len(seed.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(seed.Tasks))
	}
	milk := seed.Tasks[0]
	if !milk.InCategory("work") || milk.Priority != "high" {
		t.Errorf("unexpected milk task: %+v", milk)
	}
	if milk.DueDate == nil || milk.DueDate.Day() != 1 {
		t.Errorf("expected due 2024-03-01, got %v", milk.DueDate)
	}
	old := seed.Tasks[1]
	if old.Priority != "medium" || old.CompletedAt == nil || !old.Archived {
		t.Errorf("unexpected archived task: %+v", old)
	}
}

func TestParseSeedErrors(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		data string
		want string
	}{
		{"unknown category", "[[tasks]]\ntitle = \"a\"\ncategory = \"nope\"\n", "unknown category"},
		{"missing title", "[[tasks]]\ndescription = \"a\"\n", "title is required"},
		{"bad priority", "[[tasks]]\ntitle = \"a\"\npriority = \"urgent\"\n", "invalid priority"},
		{"bad due", "[[tasks]]\ntitle = \"a\"\ndue = \"soon\"\n", "invalid due date"},
		{"bad toml", "[[tasks]\n", "decode seed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseSeed(c.data, now)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}
