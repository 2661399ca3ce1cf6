// Package chromesource renders Lottie documents with lottie-web in headless
// Chrome, driven through chromedp.
package chromesource

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// PathOrigin records where a Chrome executable path came from.
type PathOrigin string

const (
	OriginFlag   PathOrigin = "flag"
	OriginEnv    PathOrigin = "CHROME_PATH"
	OriginSystem PathOrigin = "system"
	OriginNone   PathOrigin = ""
)

// ResolveChromePath returns the Chrome executable to launch: explicitPath
// when set, then CHROME_PATH, then the first installed system browser.
// It returns "" when nothing is found.
func ResolveChromePath(explicitPath string) string {
	path, _ := LookupChrome(explicitPath)
	return path
}

// LookupChrome is ResolveChromePath that also reports the origin of the
// result.
func LookupChrome(explicitPath string) (string, PathOrigin) {
	if explicitPath != "" {
		return explicitPath, OriginFlag
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env, OriginEnv
	}
	for _, candidate := range systemCandidates() {
		if path := resolveExecutable(candidate); path != "" {
			return path, OriginSystem
		}
	}
	return "", OriginNone
}

// Available reports whether a Chrome executable can be resolved.
func Available(explicitPath string) bool {
	_, origin := LookupChrome(explicitPath)
	return origin != OriginNone
}

// systemCandidates lists Chromium builds before Chrome for the running OS.
func systemCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
		}
	case "linux":
		return []string{"chromium", "chromium-browser", "google-chrome-stable", "google-chrome"}
	case "windows":
		var out []string
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			root := os.Getenv(env)
			if root == "" {
				continue
			}
			out = append(out,
				filepath.Join(root, "Chromium", "Application", "chrome.exe"),
				filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"))
		}
		return out
	}
	return nil
}

// resolveExecutable stats absolute paths and looks bare names up in PATH.
func resolveExecutable(nameOrPath string) string {
	if nameOrPath == "" {
		return ""
	}
	if filepath.IsAbs(nameOrPath) || filepath.VolumeName(nameOrPath) != "" {
		if _, err := os.Stat(nameOrPath); err != nil {
			return ""
		}
		return nameOrPath
	}
	path, err := exec.LookPath(nameOrPath)
	if err != nil {
		return ""
	}
	return path
}
