package model_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missive/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "missive.db", cfg.DatabaseFile)
	assert.Equal(t, 50, cfg.FetchLimit)
	assert.False(t, cfg.UseKeyring)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := &model.AppConfig{
		DataDir:      "/tmp/missive-test",
		DatabaseFile: "mail.db",
		LogFile:      "/tmp/missive-test/mail.log",
		FetchLimit:   10,
		UseKeyring:   true,
	}
	require.NoError(t, model.SaveConfig(path, in))

	out, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, filepath.Join("/tmp/missive-test", "mail.db"), out.DatabasePath())
}

func TestLoadConfigRejectsNonPositiveFetchLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &model.AppConfig{
		DataDir:      "/tmp/missive-test",
		DatabaseFile: "mail.db",
		FetchLimit:   -1,
	}
	require.NoError(t, model.SaveConfig(path, in))

	out, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, out.FetchLimit)
}

func TestNewMessageDefaults(t *testing.T) {
	before := time.Now().UTC()
	msg := model.NewMessage(
		model.Address{Email: "me@example.com"},
		[]model.Address{{Email: "bob@example.com"}},
		"Hi", "hello", "drafts",
	)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "drafts", msg.Folder)
	assert.False(t, msg.Read)
	assert.False(t, msg.Starred)

	parsed, err := time.Parse(time.RFC3339, msg.Date)
	require.NoError(t, err)
	assert.False(t, parsed.Before(before.Truncate(time.Second)))
}

func TestNewAccountAssignsID(t *testing.T) {
	a := model.NewAccount("me@example.com", "Me")
	b := model.NewAccount("me@example.com", "Me")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
