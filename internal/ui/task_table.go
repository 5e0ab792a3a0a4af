package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aidanlsb/kestrel/internal/model"
)

const (
	colNum = iota
	colCheck
	colTitle
	colProject
	colTags
	colDue
	numColumns
)

// previewWidth caps the body preview appended to titles.
const previewWidth = 40

// RenderTasks renders tasks as a borderless table sized to the display.
func RenderTasks(display *DisplayContext, tasks []model.Task) string {
	if len(tasks) == 0 {
		return ""
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(i+1, len(tasks), t)
	}

	titleWidth := titleColumnWidth(display)
	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row < 0 || row >= len(tasks) {
				return style
			}
			task := tasks[row]
			switch col {
			case colNum:
				return style.Inherit(Muted).Align(lipgloss.Right)
			case colTitle:
				style = style.MaxWidth(titleWidth)
				if task.CompletedAt != nil {
					return style.Inherit(Strike)
				}
				return style.Inherit(Accent)
			case colProject, colTags:
				return style.Inherit(Muted)
			}
			return style
		}).
		Rows(rows...)

	return tbl.Render() + "\n"
}

func taskRow(n, total int, t model.Task) []string {
	row := make([]string, numColumns)
	row[colNum] = formatRowNum(n, total)
	row[colCheck] = "[ ]"
	if t.CompletedAt != nil {
		row[colCheck] = "[x]"
	}
	row[colTitle] = t.Title
	if t.Body != nil {
		if preview := PlainPreview(*t.Body, previewWidth); preview != "" {
			row[colTitle] += " · " + preview
		}
	}
	row[colProject] = t.ProjectTitle
	if len(t.Tags) > 0 {
		row[colTags] = "#" + strings.Join(t.Tags, " #")
	}
	if t.DueDate != nil {
		row[colDue] = FormatDate(*t.DueDate)
	}
	return row
}

func titleColumnWidth(display *DisplayContext) int {
	width := DefaultTermWidth
	if display != nil {
		width = display.TermWidth
	}
	// Leave room for number, checkbox, project, tags and due columns.
	return max(30, width-60)
}

func formatRowNum(num, maxNum int) string {
	width := max(2, len(fmt.Sprint(maxNum)))
	return fmt.Sprintf("%*d", width, num)
}

// FormatDate renders a date, adding the time of day only when it is not midnight.
func FormatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
