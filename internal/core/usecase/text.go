package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

// TextInputUseCase stages typed text as the session input and tracks the
// orientation switch. Neither operation reaches the backend.
type TextInputUseCase struct {
	sessions ports.SessionStore
	messages ports.Messages
}

func NewTextInputUseCase(sessions ports.SessionStore, messages ports.Messages) *TextInputUseCase {
	return &TextInputUseCase{sessions: sessions, messages: messages}
}

func (uc *TextInputUseCase) Prepare(ctx context.Context, sessionID string, form domain.TextForm) (domain.TextInput, error) {
	session, err := uc.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return domain.TextInput{}, fmt.Errorf("load session: %w", err)
	}
	alerts := session.Alerts()

	content := strings.TrimSpace(form.Text)
	if content == "" {
		alerts.Push(domain.AlertDanger, uc.messages.Text(MsgTextEmpty))
		return domain.TextInput{}, domain.WrapError(domain.ErrInvalidInput, "prepare text", errors.New("text is empty"))
	}

	fontSize, err := parseFontSize(form.FontSize)
	if err != nil {
		alerts.Push(domain.AlertDanger, uc.messages.Text(MsgTextInvalidFontSize, domain.MinFontSize, domain.MaxFontSize))
		return domain.TextInput{}, domain.WrapError(domain.ErrInvalidInput, "prepare text", err)
	}

	input := domain.TextInput{
		Content:  content,
		Title:    strings.TrimSpace(form.Title),
		Style:    domain.ParseTextStyle(form.Style),
		FontSize: fontSize,
	}
	session.StageText(input)
	alerts.Push(domain.AlertSuccess, uc.messages.Text(MsgTextPrepared))
	return input, nil
}

// ToggleOrientation records the switch position and returns its label.
func (uc *TextInputUseCase) ToggleOrientation(ctx context.Context, sessionID string, landscape bool) (string, error) {
	session, err := uc.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return OrientationLabel(uc.messages, session.SetOrientationSwitch(landscape)), nil
}

func OrientationLabel(messages ports.Messages, o domain.Orientation) string {
	if o == domain.OrientationLandscape {
		return messages.Text(MsgOrientationLandscape)
	}
	return messages.Text(MsgOrientationPortrait)
}

func parseFontSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultFontSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("font size %q is not an integer", raw)
	}
	if size < domain.MinFontSize || size > domain.MaxFontSize {
		return 0, fmt.Errorf("font size %d outside [%d, %d]", size, domain.MinFontSize, domain.MaxFontSize)
	}
	return size, nil
}
