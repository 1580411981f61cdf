package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tuner/internal/audio"
)

var testDevices = []audio.Device{
	{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000},
	{ID: 2, Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 44100},
}

func fixedDevices() ([]audio.Device, error) { return testDevices, nil }

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
	keyJ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}
)

func send(t *testing.T, m DeviceListModel, msgs ...tea.Msg) (DeviceListModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(DeviceListModel)
	}
	return m, cmd
}

func loadedModel(t *testing.T) DeviceListModel {
	t.Helper()
	m := NewDeviceListModel(fixedDevices)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 40}, m.Init()())
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPickerSelectsDeviceAndRate(t *testing.T) {
	m := loadedModel(t)

	// Second device, default 44.1 kHz, then one step up to 22.05 kHz.
	m, _ = send(t, m, keyJ, keyEnter)
	if m.activeScreen != ConfigScreen {
		t.Fatalf("activeScreen = %v, want ConfigScreen", m.activeScreen)
	}
	if got := SampleRates[m.sampleRateIndex]; got != 44100 {
		t.Errorf("initial rate = %g, want device default 44100", got)
	}

	m, cmd := send(t, m, keyUp, keyEnter)
	if !isQuit(cmd) {
		t.Error("confirming should quit the program")
	}

	sel, ok := m.Selection()
	if !ok {
		t.Fatal("Selection() reported no choice")
	}
	want := Selection{DeviceID: 2, DeviceName: "USB Interface", SampleRate: 22050}
	if sel != want {
		t.Errorf("Selection() = %+v, want %+v", sel, want)
	}
}

func TestPickerNavigationBounds(t *testing.T) {
	m := loadedModel(t)

	m, _ = send(t, m, keyUp)
	if m.selectedIndex != 0 {
		t.Errorf("selectedIndex = %d after up at top, want 0", m.selectedIndex)
	}
	m, _ = send(t, m, keyDown, keyDown, keyDown)
	if m.selectedIndex != len(testDevices)-1 {
		t.Errorf("selectedIndex = %d after down past end, want %d", m.selectedIndex, len(testDevices)-1)
	}

	m, _ = send(t, m, keyEnter)
	for range SampleRates {
		m, _ = send(t, m, keyDown)
	}
	if m.sampleRateIndex != len(SampleRates)-1 {
		t.Errorf("sampleRateIndex = %d, want %d", m.sampleRateIndex, len(SampleRates)-1)
	}
}

func TestPickerBackAndQuit(t *testing.T) {
	m := loadedModel(t)

	m, _ = send(t, m, keyEnter, keyEsc)
	if m.activeScreen != ListScreen {
		t.Errorf("Esc should return to the list, got %v", m.activeScreen)
	}

	m, cmd := send(t, m, keyQ)
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if _, ok := m.Selection(); ok {
		t.Error("quitting should leave no selection")
	}
}

func TestPickerEnterWithoutDevices(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, nil })
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 40}, m.Init()(), keyEnter)

	if m.activeScreen != ListScreen {
		t.Error("Enter with no devices should stay on the list")
	}
	if !strings.Contains(m.View(), "No input devices found.") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestPickerFetchError(t *testing.T) {
	boom := errors.New("host API unavailable")
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, boom })
	m, _ = send(t, m, m.Init()())

	if !errors.Is(m.err, boom) {
		t.Fatalf("err = %v, want %v", m.err, boom)
	}
	if !strings.Contains(m.View(), "host API unavailable") {
		t.Errorf("View() = %q", m.View())
	}
	if _, cmd := send(t, m, keyEnter); !isQuit(cmd) {
		t.Error("any key should quit after an error")
	}
}

func TestRateIndex(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{48000, 48000},
		{96000, 96000},
		{32000, 44100},
	}
	for _, tt := range tests {
		if got := SampleRates[rateIndex(tt.rate)]; got != tt.want {
			t.Errorf("rateIndex(%g) selects %g, want %g", tt.rate, got, tt.want)
		}
	}
}
