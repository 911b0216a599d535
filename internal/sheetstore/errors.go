package sheetstore

import (
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrSheetNotFound is returned when a named sheet is absent from a
// spreadsheet file.
var ErrSheetNotFound = errors.New("sheet not found")

// apiErrorTranslations maps known Google API error markers to the
// user-facing messages shown in the UI. Matching is case-insensitive
// substring search over the cleaned message.
var apiErrorTranslations = []struct {
	marker  string
	message string
}{
	{"invalid_grant", "Сессия истекла. Пожалуйста, войдите в аккаунт снова."},
	{"insufficient authentication scopes", "Недостаточно прав. Нужно переавторизоваться и дать доступ к таблицам."},
	{"PERMISSION_DENIED", "Доступ запрещен. Убедитесь, что у вас есть права на редактирование этой таблицы."},
	{"rateLimitExceeded", "Слишком много запросов. Подождите немного."},
	{"RESOURCE_EXHAUSTED", "Превышен лимит запросов. Подождите пару минут."},
	{"access_denied", "Вы отменили авторизацию или доступ ограничен."},
	{"UNAUTHENTICATED", "Ошибка авторизации. Проверьте логин."},
	{"not found", "Запрашиваемый ресурс (файл или лист) не найден."},
}

// TranslateAPIError converts a remote-store error into the user-facing
// message for it. Unknown errors come back as their own (cleaned)
// message; nil comes back empty.
func TranslateAPIError(err error) string {
	if err == nil {
		return ""
	}

	message := err.Error()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	} else if cleaned := messageFromJSON(message); cleaned != "" {
		message = cleaned
	}

	lower := strings.ToLower(message)
	for _, t := range apiErrorTranslations {
		if strings.Contains(lower, strings.ToLower(t.marker)) {
			return t.message
		}
	}
	return message
}

// TranslatedError carries the user-facing message while keeping the
// original error reachable for errors.Is/As.
type TranslatedError struct {
	Message string
	Err     error
}

func (e *TranslatedError) Error() string {
	return e.Message
}

func (e *TranslatedError) Unwrap() error {
	return e.Err
}

// Translate wraps a remote-store error with its user-facing message.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	return &TranslatedError{Message: TranslateAPIError(err), Err: err}
}

// messageFromJSON digs the clean message out of a JSON error body, if
// the error string happens to be one.
func messageFromJSON(raw string) string {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return ""
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return body.Message
}
