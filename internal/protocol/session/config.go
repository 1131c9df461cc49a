package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/editorhost/internal/protocol/frame"
)

// Config defines where window processes listen and how large frames may grow.
type Config struct {
	Network    string
	RuntimeDir string
	Limits     frame.Limits
}

func DefaultConfig() Config {
	return Config{
		Network:    "unix",
		RuntimeDir: filepath.Join(os.TempDir(), "editorhost"),
		Limits:     frame.DefaultLimits(),
	}
}

// SocketPath returns the listening address for a window process. Process names carry a
// ':' separator which is replaced to keep paths portable.
func (c Config) SocketPath(processName string) string {
	name := strings.NewReplacer(":", "-", "/", "_").Replace(processName)
	return filepath.Join(c.RuntimeDir, name+".sock")
}
