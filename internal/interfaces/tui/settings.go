package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

const (
	setFieldTheme = iota
	setFieldNotifications
	setFieldAPIKey
	setFieldSave
	setFieldCount
)

const msgLoadSettingsFailed = "Failed to load settings"

type settingsView struct {
	svc SettingsService
	ctx context.Context
	gen int

	prefs  entity.Preferences
	apiKey textinput.Model
	focus  int
	loaded bool
	saving bool
}

func newSettingsView(svc SettingsService) *settingsView {
	key := textinput.New()
	key.Placeholder = "sk-...."
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.Width = 48
	return &settingsView{svc: svc, apiKey: key, prefs: entity.DefaultPreferences()}
}

func (v *settingsView) init(ctx context.Context, gen int) tea.Cmd {
	v.ctx, v.gen = ctx, gen
	v.saving = false
	v.setFocus(setFieldTheme)
	svc := v.svc
	return func() tea.Msg {
		prefs, err := svc.Load(ctx)
		return settingsLoadedMsg{gen: gen, prefs: prefs, err: err}
	}
}

func (v *settingsView) capturesKeys() bool {
	return v.focus == setFieldAPIKey
}

func (v *settingsView) setFocus(i int) tea.Cmd {
	v.focus = (i + setFieldCount) % setFieldCount
	if v.focus == setFieldAPIKey {
		return v.apiKey.Focus()
	}
	v.apiKey.Blur()
	return nil
}

func (v *settingsView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, msgLoadSettingsFailed))
		}
		v.apply(msg.prefs)
		return nil

	case settingsSavedMsg:
		v.saving = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, "Failed to save settings"))
		}
		v.apply(msg.prefs)
		return notify(usecase.MsgSettingsSaved)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "shift+tab":
			return v.setFocus(v.focus - 1)
		case "down", "tab":
			return v.setFocus(v.focus + 1)
		case "ctrl+s":
			return v.save()
		case "esc":
			if v.focus == setFieldAPIKey {
				return v.setFocus(setFieldSave)
			}
		}

		switch v.focus {
		case setFieldTheme:
			switch msg.String() {
			case "left", "right", " ", "enter", "h", "l":
				if v.prefs.Theme == entity.ThemeDark {
					v.prefs.Theme = entity.ThemeLight
				} else {
					v.prefs.Theme = entity.ThemeDark
				}
			}
		case setFieldNotifications:
			switch msg.String() {
			case " ", "enter", "left", "right":
				v.prefs.Notifications = !v.prefs.Notifications
			}
		case setFieldAPIKey:
			if msg.String() == "enter" {
				return v.setFocus(setFieldSave)
			}
			var cmd tea.Cmd
			v.apiKey, cmd = v.apiKey.Update(msg)
			return cmd
		case setFieldSave:
			if msg.String() == "enter" || msg.String() == " " {
				return v.save()
			}
		}
	}
	return nil
}

func (v *settingsView) apply(prefs entity.Preferences) {
	v.prefs = prefs
	v.apiKey.SetValue(prefs.APIKey)
	v.loaded = true
}

func (v *settingsView) save() tea.Cmd {
	if v.saving {
		return nil
	}
	v.saving = true
	prefs := v.prefs
	prefs.APIKey = v.apiKey.Value()
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		saved, err := svc.Save(ctx, prefs)
		return settingsSavedMsg{gen: gen, prefs: saved, err: err}
	}
}

func (v *settingsView) view(_, _ int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings") + "\n\n")
	if !v.loaded {
		b.WriteString(dimStyle.Render("Loading settings…") + "\n\n")
	}

	b.WriteString(fieldLabel("Theme", v.focus == setFieldTheme) + "  ")
	for _, t := range []string{entity.ThemeDark, entity.ThemeLight} {
		if v.prefs.Theme == t {
			b.WriteString(focusedFieldStyle.Render("◉ "+t) + "  ")
		} else {
			b.WriteString(dimStyle.Render("○ "+t) + "  ")
		}
	}
	b.WriteString("\n\n")

	check := "[ ]"
	if v.prefs.Notifications {
		check = "[x]"
	}
	b.WriteString(fieldLabel("Notifications", v.focus == setFieldNotifications) + "  " + valueStyle.Render(check) + "\n\n")

	b.WriteString(fieldLabel("API Key", v.focus == setFieldAPIKey) + "\n")
	b.WriteString(v.apiKey.View() + "\n")
	if masked := v.prefs.MaskedAPIKey(); masked != "" {
		b.WriteString(faintStyle.Render("  current: "+masked) + "\n")
	}
	b.WriteString("\n")

	save := "[ Save ]"
	if v.focus == setFieldSave {
		b.WriteString(focusedFieldStyle.Render(save))
	} else {
		b.WriteString(dimStyle.Render(save))
	}
	if v.saving {
		b.WriteString("  " + dimStyle.Render("Saving…"))
	}
	if !v.prefs.UpdatedAt.IsZero() {
		b.WriteString("\n" + faintStyle.Render("last saved "+v.prefs.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}

	b.WriteString(helpStyle.Render("↑/↓ move • space toggle • ctrl+s save"))
	return b.String()
}
