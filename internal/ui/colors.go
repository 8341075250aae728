// Package ui styles CLI output with lipgloss.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	header lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		header: NewBold(t).
			Border(lipgloss.DoubleBorder(), true, false).
			BorderForeground(lipgloss.Color(t)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Header renders a section title between double rules.
func (p *Palette) Header(s string) string { return p.header.Render(s) }

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Header renders s with the default palette.
func Header(s string) string { return styles.Header(s) }

// Title renders s with the default palette.
func Title(s string) string { return styles.Title(s) }

// OK renders a success message with the default palette.
func OK(s string) string { return styles.OK(s) }

// Err renders an error message with the default palette.
func Err(s string) string { return styles.Err(s) }

// Warn renders a warning with the default palette.
func Warn(s string) string { return styles.Warn(s) }

// Help renders a hint with the default palette.
func Help(s string) string { return styles.Help(s) }
