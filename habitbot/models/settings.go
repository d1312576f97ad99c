package models

// UserSettings is a pure configuration bag. Nothing here carries
// business logic beyond the documented defaults and the theme
// fallback.
type UserSettings struct {
	Timezone                    string `json:"timezone"`
	Language                    string `json:"language"`
	Theme                       string `json:"theme"`
	DailyReminderTime           string `json:"daily_reminder_time"`
	ReminderEnabled             bool   `json:"reminder_enabled"`
	WeeklyStats                 bool   `json:"weekly_stats"`
	MotivationalMessages        bool   `json:"motivational_messages"`
	NotificationSound           bool   `json:"notification_sound"`
	AutoArchiveCompleted        bool   `json:"auto_archive_completed"`
	AIChatEnabled               bool   `json:"ai_chat_enabled"`
	ShowXP                      bool   `json:"show_xp"`
	ShowStreaks                 bool   `json:"show_streaks"`
	DryModeEnabled              bool   `json:"dry_mode_enabled"`
	PomodoroDuration            int    `json:"pomodoro_duration"`
	PomodoroShortBreak          int    `json:"pomodoro_short_break"`
	PomodoroLongBreak           int    `json:"pomodoro_long_break"`
	CompactView                 bool   `json:"compact_view"`
	AutoCompleteSubtasks        bool   `json:"auto_complete_subtasks"`
	AchievementNotifications    bool   `json:"achievement_notifications"`
	FriendActivityNotifications bool   `json:"friend_activity_notifications"`
	DataExportFormat            string `json:"data_export_format"`
	PrivacyLevel                string `json:"privacy_level"`
}

const DefaultTheme = "classic"

var validThemes = map[string]bool{
	"classic":  true,
	"dark":     true,
	"nature":   true,
	"minimal":  true,
	"colorful": true,
}

func NewUserSettings() *UserSettings {
	return &UserSettings{
		Timezone:                 "UTC",
		Language:                 "en",
		Theme:                    DefaultTheme,
		DailyReminderTime:        "09:00",
		ReminderEnabled:          true,
		WeeklyStats:              true,
		MotivationalMessages:     true,
		NotificationSound:        true,
		ShowXP:                   true,
		ShowStreaks:              true,
		PomodoroDuration:         25,
		PomodoroShortBreak:       5,
		PomodoroLongBreak:        15,
		AchievementNotifications: true,
		DataExportFormat:         "json",
		PrivacyLevel:             "friends",
	}
}

// SetTheme falls back to the classic theme for unknown names instead
// of failing.
func (s *UserSettings) SetTheme(theme string) {
	if !validThemes[theme] {
		theme = DefaultTheme
	}
	s.Theme = theme
}

// EffectiveTheme guards against values written by older versions.
func (s *UserSettings) EffectiveTheme() string {
	if !validThemes[s.Theme] {
		return DefaultTheme
	}
	return s.Theme
}
