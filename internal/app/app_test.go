package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/command"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/randomizer"
	"github.com/remoshock/remoshock/internal/sender"
	"github.com/remoshock/remoshock/internal/sender/fake"
)

func generated(t *testing.T, types ...string) *config.Config {
	t.Helper()
	cfg, err := config.Generate("HackRF", types)
	require.NoError(t, err)
	return cfg
}

func TestLoadBootMock(t *testing.T) {
	dir := t.TempDir()
	cfg := generated(t, "pac", "petrainer")
	cfg.Global.AuditDir = filepath.Join(dir, "audit")
	path := filepath.Join(dir, "remoshock.toml")
	require.NoError(t, config.Write(path, cfg))

	a, err := Load(Options{ConfigPath: path, Mock: true}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Boot(context.Background()))

	require.NoError(t, a.Dispatcher.Dispatch(context.Background(), 2, codec.ActionBeep, 0, 250))
	radio, ok := a.Radio.(*fake.Sender)
	require.True(t, ok)
	assert.Equal(t, 1, radio.Count())

	require.NoError(t, a.Close())
	data, err := os.ReadFile(filepath.Join(dir, "audit", "audit.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"BEEP"`)
	assert.Contains(t, string(data), `"outcome":"SUCCESS"`)
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(Options{ConfigPath: filepath.Join(t.TempDir(), "absent.toml")}, zerolog.Nop())
	assert.True(t, errors.Is(err, config.ErrNotFound))
}

func TestSDROverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remoshock.yaml")
	require.NoError(t, config.Write(path, generated(t, "wodondog")))

	a, err := Load(Options{ConfigPath: path, SDR: "LimeSDR"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "LimeSDR", a.Config.Global.SDR)
}

func TestBrokenReceiversAreExcluded(t *testing.T) {
	cfg := generated(t, "pac", "petrainer", "wodondog")
	cfg.Receivers[1].Type = "petrainr"
	tooStrong := 101
	cfg.Receivers[2].LimitShockMaxPowerPercent = &tooStrong

	a := New(cfg, Options{Mock: true}, zerolog.Nop())
	require.NoError(t, a.Boot(context.Background()))
	defer a.Close()

	require.Equal(t, 1, a.Dispatcher.ReceiverCount())
	r, err := a.Dispatcher.Receiver(1)
	require.NoError(t, err)
	assert.Equal(t, "pac", r.Properties().Type)
	assert.NoError(t, a.Dispatcher.Dispatch(context.Background(), 1, codec.ActionBeep, 0, 250))
}

func TestBootWithoutValidReceivers(t *testing.T) {
	cfg := generated(t, "pac")
	cfg.Receivers = append(cfg.Receivers, config.ReceiverSection{Type: "teleporter"})
	cfg.Receivers[0].Type = ""

	a := New(cfg, Options{Mock: true}, zerolog.Nop())
	assert.Equal(t, 0, a.Dispatcher.ReceiverCount())
	assert.True(t, errors.Is(a.Boot(context.Background()), command.ErrNoReceivers))
}

func TestBootWithoutSDR(t *testing.T) {
	cfg := generated(t, "petrainer")
	cfg.Global.SDR = ""

	a := New(cfg, Options{}, zerolog.Nop())
	err := a.Boot(context.Background())
	assert.True(t, errors.Is(err, sender.ErrNoDevice))
}

func TestMockRelayReceivers(t *testing.T) {
	cfg := generated(t, "pac")
	cfg.Receivers = append(cfg.Receivers,
		config.ReceiverSection{Type: "arduino_optocoupler", Name: "opto", RelayArgs: []int{2, 3, 4}},
		config.ReceiverSection{Type: "arduino_petrainer", Name: "pet", TransmitterCode: "0101010100001111", Channel: 1},
	)

	a := New(cfg, Options{Mock: true}, zerolog.Nop())
	require.NoError(t, a.Boot(context.Background()))
	defer a.Close()

	assert.Equal(t, 3, a.Dispatcher.ReceiverCount())
	assert.NoError(t, a.Dispatcher.Dispatch(context.Background(), 2, codec.ActionVibrate, 20, 1000))
	assert.NoError(t, a.Dispatcher.Dispatch(context.Background(), 3, codec.ActionShock, 20, 1000))
}

func TestRandomizerConfigFollowsBootedReceivers(t *testing.T) {
	cfg := generated(t, "pac", "petrainer")
	weight := 4
	cfg.Receivers[1].RandomProbabilityWeight = &weight
	cfg.Profiles = map[string]map[string]int{"gentle": {"shock_max_power_percent": 5}}

	a := New(cfg, Options{Mock: true}, zerolog.Nop())
	require.NoError(t, a.Boot(context.Background()))
	defer a.Close()

	rc, err := a.RandomizerConfig("gentle")
	require.NoError(t, err)
	assert.Equal(t, 5, rc.ShockMaxPowerPercent)
	assert.Equal(t, []int{1, 4}, rc.Weights(2))

	_, err = a.RandomizerConfig("missing")
	assert.True(t, errors.Is(err, config.ErrUnknownSection))

	r := a.NewRandomizer(rc)
	assert.Equal(t, randomizer.StatusInactive, r.Status().Status)
}
