//go:build linux

package notify

func osCommand(appName, title, body string) (string, []string, bool) {
	return "notify-send", []string{"-a", appName, title, body}, true
}
