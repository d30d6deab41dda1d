// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/retr0h/gatehouse/internal/audit"
	"github.com/retr0h/gatehouse/internal/authz"
	"github.com/retr0h/gatehouse/internal/credential"
)

// Theme colors for terminal UI rendering.
var (
	Purple = lipgloss.Color("99")
	Gray   = lipgloss.Color("245")
	White  = lipgloss.Color("15")
	Teal   = lipgloss.Color("#06ffa5")
	Amber  = lipgloss.Color("214")
)

var (
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	valueStyle  = lipgloss.NewStyle().Foreground(Teal)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	evenStyle   = lipgloss.NewStyle().Foreground(Teal)
	oddStyle    = lipgloss.NewStyle().Foreground(White)
	warnStyle   = lipgloss.NewStyle().Foreground(Amber)

	// DimStyle is a muted style for secondary text.
	DimStyle = lipgloss.NewStyle().Foreground(Gray)
)

const (
	maxColWidth = 60
	colGap      = 2

	// KVMinColWidth keeps consecutive PrintKV lines aligned.
	KVMinColWidth = 20
)

// Section is a titled table.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// PrintCompactTable renders sections as left-aligned columns. Cells are
// flattened to one line and truncated at maxColWidth.
func PrintCompactTable(
	w io.Writer,
	sections []Section,
) {
	for _, section := range sections {
		if section.Title != "" {
			_, _ = fmt.Fprintf(w, "\n  %s:\n", headerStyle.Render(section.Title))
		} else {
			_, _ = fmt.Fprintln(w)
		}

		rows := make([][]string, len(section.Rows))
		for r, row := range section.Rows {
			rows[r] = make([]string, len(row))
			for c, cell := range row {
				rows[r][c] = strings.Join(strings.Fields(cell), " ")
			}
		}

		widths := make([]int, len(section.Headers))
		for i, h := range section.Headers {
			widths[i] = len(h)
		}
		for _, row := range rows {
			for i, cell := range row {
				if i < len(widths) {
					widths[i] = min(max(widths[i], len([]rune(cell))), maxColWidth)
				}
			}
		}

		headers := make([]string, len(section.Headers))
		for i, h := range section.Headers {
			headers[i] = strings.ToUpper(h)
		}
		_, _ = fmt.Fprintln(w, renderRow(headerStyle, headers, widths))

		for r, row := range rows {
			style := evenStyle
			if r%2 != 0 {
				style = oddStyle
			}
			_, _ = fmt.Fprintln(w, renderRow(style, row, widths))
		}
	}
}

func renderRow(
	style lipgloss.Style,
	cells []string,
	widths []int,
) string {
	var line strings.Builder
	line.WriteString("  ")

	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		if runes := []rune(cell); len(runes) > width {
			cell = string(runes[:width-1]) + "…"
		}

		if i < len(widths)-1 {
			cell = fmt.Sprintf("%-*s", width+colGap, cell)
		}
		line.WriteString(style.Render(cell))
	}

	return line.String()
}

// PrintKV prints alternating label, value arguments on one indented line.
func PrintKV(
	w io.Writer,
	pairs ...string,
) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return
	}

	rendered := make([]string, 0, len(pairs)/2)
	width := KVMinColWidth
	for i := 0; i < len(pairs); i += 2 {
		pair := labelStyle.Render(pairs[i]+":") + " " + valueStyle.Render(pairs[i+1])
		rendered = append(rendered, pair)
		width = max(width, lipgloss.Width(pair))
	}

	var line strings.Builder
	line.WriteString("  ")
	for i, pair := range rendered {
		line.WriteString(pair)
		if i < len(rendered)-1 {
			line.WriteString(strings.Repeat(" ", width-lipgloss.Width(pair)+4))
		}
	}

	_, _ = fmt.Fprintln(w, line.String())
}

// PrintWarning prints msg in the warning color.
func PrintWarning(
	w io.Writer,
	msg string,
) {
	_, _ = fmt.Fprintln(w, "  "+warnStyle.Render(msg))
}

// PrintJSON writes v as indented JSON.
func PrintJSON(
	w io.Writer,
	v any,
) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// FormatAge renders d as "3d 4h", "12h 30m", "45m" or "30s".
func FormatAge(
	d time.Duration,
) string {
	if d <= 0 {
		return ""
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// FormatDetails renders details as sorted key=value pairs.
func FormatDetails(
	details map[string]string,
) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+details[k])
	}

	return strings.Join(parts, " ")
}

// IdentitySection tabulates identities with their age relative to now.
func IdentitySection(
	ids []credential.Identity,
	now time.Time,
) Section {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{
			id.Username,
			id.Role,
			id.CreatedAt.Format(time.RFC3339),
			FormatAge(now.Sub(id.CreatedAt)),
		})
	}

	return Section{
		Title:   "Users",
		Headers: []string{"username", "role", "created", "age"},
		Rows:    rows,
	}
}

// RoleSection tabulates roles with their effective permissions.
func RoleSection(
	roles []authz.RoleInfo,
) Section {
	rows := make([][]string, 0, len(roles))
	for _, r := range roles {
		rows = append(rows, []string{
			r.Name,
			strings.Join(r.Inherits, ","),
			strings.Join(r.Effective, ","),
		})
	}

	return Section{
		Title:   "Roles",
		Headers: []string{"name", "inherits", "permissions"},
		Rows:    rows,
	}
}

// AuditSection tabulates audit events in the given order.
func AuditSection(
	events []audit.Event,
) Section {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			strconv.FormatUint(e.Seq, 10),
			e.Timestamp.Format(time.RFC3339),
			e.Actor,
			e.Action,
			string(e.Status),
			string(e.Level),
			FormatDetails(e.Details),
		})
	}

	return Section{
		Title:   "Audit",
		Headers: []string{"seq", "time", "actor", "action", "status", "level", "details"},
		Rows:    rows,
	}
}
