package window

import (
	"testing"

	"github.com/danmuck/editorhost/internal/testutil/testlog"
)

func TestResolveKnownIDs(t *testing.T) {
	testlog.Start(t)
	for _, d := range All() {
		got, ok := Resolve(d.ID)
		if !ok || got != d {
			t.Fatalf("resolve %d: got %+v ok=%v", d.ID, got, ok)
		}
	}
	if len(All()) != 4 {
		t.Fatalf("expected four descriptors")
	}
}

func TestResolveUnknownID(t *testing.T) {
	testlog.Start(t)
	if _, ok := Resolve(12345); ok {
		t.Fatalf("unknown id must not resolve")
	}
}

func TestIDsUnique(t *testing.T) {
	testlog.Start(t)
	seen := map[int]bool{}
	for _, d := range All() {
		if seen[d.ID] {
			t.Fatalf("duplicate id %d", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestProcessNameAndPolicy(t *testing.T) {
	testlog.Start(t)
	if got := RunGame.ProcessName("org.godotengine.editor.v4"); got != "org.godotengine.editor.v4:GodotGame" {
		t.Fatalf("process name: %q", got)
	}
	if Editor.ProcessName("pkg") != "pkg" {
		t.Fatalf("editor runs in the main process")
	}
	if RunGame.LaunchPolicy != LaunchAdjacent || EmbeddedRunGame.LaunchPolicy != LaunchDefault {
		t.Fatalf("unexpected launch policies")
	}
	if Editor.IsGame() || !XRRunGame.IsGame() {
		t.Fatalf("unexpected IsGame")
	}
}

func TestParseRole(t *testing.T) {
	testlog.Start(t)
	d, err := ParseRole(" Embedded-Run-Game ")
	if err != nil || d != EmbeddedRunGame {
		t.Fatalf("parse role: %+v %v", d, err)
	}
	if _, err := ParseRole("inspector"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
