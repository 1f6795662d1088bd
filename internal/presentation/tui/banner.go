package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  ____            _           ", "#818cf8"},
	{" |  _ \\ __ _ _ __| | ___ _   _ ", "#a78bfa"},
	{" | |_) / _` | '__| |/ _ \\ | | |", "#c084fc"},
	{" |  __/ (_| | |  | |  __/ |_| |", "#e879f9"},
	{" |_|   \\__,_|_|  |_|\\___|\\__, |", "#f472b6"},
	{"                          |___/ ", "#fb7185"},
}

// PrintBanner writes the ASCII banner followed by a subtitle line.
func PrintBanner(w io.Writer, profile termenv.Profile, subtitle string) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, profile.String(" "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
