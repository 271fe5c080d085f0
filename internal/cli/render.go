// Package cli nextpm-decode 命令行：解析参数、解码并以表格/JSON 输出
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
)

// styles 绑定到具体输出的样式；非终端输出时 lipgloss 自动降级为纯文本
type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	name     lipgloss.Style
	raw      lipgloss.Style
	value    lipgloss.Style
	key      lipgloss.Style
	errTitle lipgloss.Style
	errText  lipgloss.Style
	flag     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#575B7E")).
			Padding(0, 1),
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("240")),
		name:     r.NewStyle().Width(12).Padding(0, 1),
		raw:      r.NewStyle().Width(10).Align(lipgloss.Right).Padding(0, 1),
		value:    r.NewStyle().Width(20).Padding(0, 1),
		key:      r.NewStyle().Bold(true).Width(11),
		errTitle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		errText:  r.NewStyle().Foreground(lipgloss.Color("196")),
		flag:     r.NewStyle().Foreground(lipgloss.Color("226")),
	}
}

// renderFrame 字段表 + 元信息
func (s styles) renderFrame(fr *nextpm.Frame) string {
	rows := []string{
		s.title.Render("Decoded fields"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			s.header.Inherit(s.name).Render("Field"),
			s.header.Inherit(s.raw).Render("Raw"),
			s.header.Inherit(s.value).Render("Value"),
		),
	}
	for _, f := range fr.Fields {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			s.name.Render(f.Name),
			s.raw.Render(strconv.Itoa(int(f.Raw))),
			s.value.Render(f.Value.String()),
		))
	}
	if len(fr.Fields) == 0 {
		rows = append(rows, s.name.Render("(none)"))
	}

	rows = append(rows, "", s.title.Render("Meta"),
		s.key.Render("Command")+fmt.Sprintf("0x%02X %s", fr.Command, fr.Schema.Label),
		s.key.Render("Schema")+fr.Schema.ID,
	)
	if fr.Status != nil {
		status := fmt.Sprintf("0x%02X OK", fr.Status.Raw)
		if !fr.Status.OK {
			status = fmt.Sprintf("0x%02X ", fr.Status.Raw) + s.flag.Render(strings.Join(fr.Status.Flags, ", "))
		}
		rows = append(rows, s.key.Render("Status")+status)
	}
	rows = append(rows,
		s.key.Render("Checksum")+fmt.Sprintf("0x%02X", fr.Checksum),
		s.key.Render("Frame")+nextpm.FormatHex(fr.Raw),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderError 红色错误信息
func (s styles) renderError(input string, err error) string {
	title := "Decode failed"
	if de, ok := nextpm.AsDecodeError(err); ok {
		title += " (" + de.Kind.String() + ")"
	}
	lines := []string{s.errTitle.Render(title)}
	if input != "" {
		lines = append(lines, s.key.Render("Input")+input)
	}
	lines = append(lines, s.errText.Render(err.Error()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
