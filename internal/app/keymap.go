package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyQuitUpper   = "Q"
	KeyCtrlC       = "ctrl+c"
	KeyToggleView  = "v"
	KeyToggleUpper = "V"
	KeyUp          = "up"
	KeyDown        = "down"
	KeyJ           = "j"
	KeyK           = "k"
	KeyHalfUp      = "u"
	KeyHalfDown    = "d"
	KeyTop         = "g"
	KeyBottom      = "G"
)
