package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetThemeFallsBackToClassic(t *testing.T) {
	s := NewUserSettings()

	s.SetTheme("dark")
	assert.Equal(t, "dark", s.Theme)

	s.SetTheme("neon-hologram")
	assert.Equal(t, DefaultTheme, s.Theme)
}

func TestEffectiveThemeGuardsStoredValues(t *testing.T) {
	s := NewUserSettings()
	s.Theme = "something-old"

	assert.Equal(t, DefaultTheme, s.EffectiveTheme())
}

func TestSettingsDefaults(t *testing.T) {
	s := NewUserSettings()

	assert.Equal(t, "09:00", s.DailyReminderTime)
	assert.Equal(t, 25, s.PomodoroDuration)
	assert.False(t, s.AIChatEnabled)
	assert.True(t, s.ReminderEnabled)
	assert.Equal(t, "json", s.DataExportFormat)
}
