package ui

import "github.com/gdamore/tcell/v2"

// MenuColors is the palette shared by the menus, the settings card and the prompt.
var MenuColors = struct {
	Border      tcell.Color
	BorderFocus tcell.Color
	CardBG      tcell.Color
	FieldBG     tcell.Color
	Title       tcell.Color
	TitleAccent tcell.Color
	Label       tcell.Color
	Hint        tcell.Color
	Selected    tcell.Color
	Unselected  tcell.Color
	ButtonBG    tcell.Color
	ButtonFocus tcell.Color
	ButtonText  tcell.Color
}{
	Border:      tcell.PaletteColor(60),
	BorderFocus: tcell.PaletteColor(109),
	CardBG:      tcell.PaletteColor(236),
	FieldBG:     tcell.PaletteColor(238),
	Title:       tcell.PaletteColor(255),
	TitleAccent: tcell.PaletteColor(109),
	Label:       tcell.PaletteColor(250),
	Hint:        tcell.PaletteColor(245),
	Selected:    tcell.PaletteColor(109),
	Unselected:  tcell.PaletteColor(245),
	ButtonBG:    tcell.PaletteColor(60),
	ButtonFocus: tcell.PaletteColor(109),
	ButtonText:  tcell.PaletteColor(255),
}
