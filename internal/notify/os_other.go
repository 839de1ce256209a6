//go:build !linux && !darwin && !windows

package notify

func osCommand(_, _, _ string) (string, []string, bool) {
	return "", nil, false
}
