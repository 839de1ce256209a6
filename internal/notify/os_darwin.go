//go:build darwin

package notify

import "strings"

func osCommand(_, title, body string) (string, []string, bool) {
	quote := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	script := `display notification "` + quote.Replace(body) + `" with title "` + quote.Replace(title) + `"`
	return "osascript", []string{"-e", script}, true
}
