package cli

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/view"
)

func newTestBrowser(t *testing.T) (browseModel, testEnv) {
	t.Helper()
	env := newTestEnv(t, cacheBackendNone)
	c := New(io.Discard, LogInfo)
	runner, err := c.newRunner(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	m, err := newBrowseModel(context.Background(), runner, c.baseOptions(env.scene))
	if err != nil {
		t.Fatal(err)
	}
	return m, env
}

// press feeds keys to the model one at a time.
func press(m browseModel, keys ...string) (browseModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(browseModel)
	}
	return m, cmd
}

func rowHandles(m browseModel) []scene.Handle {
	hs := make([]scene.Handle, len(m.rows))
	for i, r := range m.rows {
		hs[i] = r.node.Context
	}
	return hs
}

func TestBrowseModel(t *testing.T) {
	m, _ := newTestBrowser(t)

	if got, want := rowHandles(m), []scene.Handle{"enemy", "camera", "player", "spawn", "light"}; !slices.Equal(got, want) {
		t.Fatalf("initial rows = %v, want %v", got, want)
	}

	m, _ = press(m, "j", "f", "enter")
	if got := m.selected().Context; got != "camera" {
		t.Errorf("cursor on %s, want camera", got)
	}
	if got, want := rowHandles(m), []scene.Handle{"enemy", "camera", "camera/Follow", "player", "spawn", "light"}; !slices.Equal(got, want) {
		t.Errorf("rows after expand = %v, want %v", got, want)
	}

	m, _ = press(m, "d")
	state := view.Capture(m.view)
	if !slices.Equal(state.Pinned, []scene.Handle{"camera", "player"}) {
		t.Errorf("pinned after dig = %v, want [camera player]", state.Pinned)
	}
	if !strings.Contains(m.status, "1 objects") {
		t.Errorf("status = %q", m.status)
	}

	m, _ = press(m, "l")
	if got := view.Capture(m.view).Offsets["camera"]; got.X != m.view.Config().ColumnWidth() {
		t.Errorf("camera offset after move = %+v", got)
	}

	m, _ = press(m, "3")
	if !m.view.Toggles().Siblings {
		t.Error("3 did not switch sibling connections on")
	}

	if _, cmd := press(m, "q"); cmd == nil {
		t.Error("q did not quit")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q returned %T, want tea.QuitMsg", cmd())
	}
}

func TestBrowseModelView(t *testing.T) {
	m, _ := newTestBrowser(t)
	m, _ = press(m, "a")

	out := m.View()
	for _, want := range []string{"scenemap · demo", "Main Camera (Object)", "●", "→1", "←2", "pinned every object"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() is missing %q:\n%s", want, out)
		}
	}
}

func TestBrowseModelRescan(t *testing.T) {
	m, env := newTestBrowser(t)
	m, _ = press(m, "j", "f")

	data, err := os.ReadFile(env.scene)
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, []byte("  - id: turret\n    name: Turret\n    components:\n      - type: AI\n        fields:\n          - name: target\n            type: Transform\n            ref: player/Transform\n")...)
	if err := os.WriteFile(env.scene, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, _ = press(m, "r")
	if !strings.HasPrefix(m.status, "rescanned") {
		t.Fatalf("status = %q", m.status)
	}
	if !slices.Contains(rowHandles(m), "turret") {
		t.Errorf("rows after rescan = %v", rowHandles(m))
	}
	if got := view.Capture(m.view).Pinned; !slices.Equal(got, []scene.Handle{"camera"}) {
		t.Errorf("pinned after rescan = %v, want [camera]", got)
	}
}

func TestBrowseModelWriteSVG(t *testing.T) {
	m, env := newTestBrowser(t)
	m, _ = press(m, "a", "w")

	path := strings.TrimSuffix(env.scene, ".yaml") + ".svg"
	if m.status != "wrote "+path {
		t.Fatalf("status = %q", m.status)
	}
	if data, err := os.ReadFile(path); err != nil || !strings.Contains(string(data), "<svg") {
		t.Errorf("svg not written: %v", err)
	}
}
