package cli

import "fmt"

func (a *App) getStatus() string {
	s := ""
	if a.isLocked() {
		s = "locked "
	}
	if m := a.Mode(); m != ModeUnknown {
		s += string(m)
	}
	if a.busy() {
		s += " sending"
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
