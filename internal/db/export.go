package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tgienger/todo/internal/models"
)

// ExportFormat selects the layout of an export file
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportText ExportFormat = "txt"
)

// ParseExportFormat accepts json or txt, case-insensitively
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportJSON, ExportText:
		return f, nil
	case "text":
		return ExportText, nil
	}
	return "", fmt.Errorf("%w: export format %q", models.ErrInvalidInput, s)
}

// Export writes owner's tasks to the exports directory and returns the file path.
// Exporting again replaces the previous file.
func (s *TaskStore) Export(owner string, format ExportFormat) (string, error) {
	format, err := ParseExportFormat(string(format))
	if err != nil {
		return "", err
	}
	tasks, err := s.ListTasks(owner)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	switch format {
	case ExportJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tasks); err != nil {
			return "", storageError("encode", owner, err)
		}
	case ExportText:
		if err := WriteTasksText(&buf, owner, tasks); err != nil {
			return "", storageError("encode", owner, err)
		}
	}

	path := filepath.Join(s.exportDir, fmt.Sprintf("%s_tasks_export.%s", exportName(owner), format))
	if err := writeFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	s.logger.Info("tasks exported", "owner", owner, "format", format, "count", len(tasks), "path", path)
	return path, nil
}

// WriteTasksText renders tasks as a plain text report
func WriteTasksText(w io.Writer, owner string, tasks []models.Task) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Tasks for %s\n", owner)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for i, t := range tasks {
		status := "Pending"
		if t.Completed {
			status = "Completed"
		}
		fmt.Fprintf(&b, "Task #%d\n", i+1)
		fmt.Fprintf(&b, "  Title: %s\n", t.Title)
		fmt.Fprintf(&b, "  Priority: %s\n", t.Priority)
		fmt.Fprintf(&b, "  Category: %s\n", t.Category)
		fmt.Fprintf(&b, "  Status: %s\n", status)
		if t.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", t.Description)
		}
		if t.DueDate != nil {
			fmt.Fprintf(&b, "  Due Date: %s\n", t.DueDate.Format("2006-01-02"))
		}
		if t.CreatedAt != nil {
			fmt.Fprintf(&b, "  Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// exportName makes a username safe to use in a file name
func exportName(owner string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, owner)
	name = strings.Trim(name, ".")
	if name == "" {
		return "user"
	}
	return name
}
