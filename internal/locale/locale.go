// Package locale holds the user-facing message catalog. Russian is the
// service's original language; English is provided as an alternative and
// selected through Accept-Language.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. Each key doubles as the English text.
const (
	MsgNoFiles              = "No files were uploaded"
	MsgUnsupportedExtension = "Upload failed. Only files with the following extensions are allowed: %s."
	MsgPayloadTooLarge      = "Upload failed! File %s exceeds %d MB"
	MsgRequestTooLarge      = "Upload failed! Request exceeds %d MB"
	MsgCorruptImage         = "Upload failed! The file is corrupted, try converting its color representation to RGB or upload another file."
	MsgSavedFiles           = "Saved files %s"
	MsgFileDeleted          = "File deleted!"
	MsgFileNotFound         = "Error: file not found"
	MsgProjectNotFound      = "Project not found"
	MsgAccessDenied         = "Access denied"
	MsgInternalError        = "Internal server error, please try again later"

	MsgProjects      = "Projects"
	MsgUpload        = "Upload"
	MsgAllowedTypes  = "Allowed extensions: %s"
	MsgSizeLimit     = "Maximum file size: %s"
	MsgNoStoredFiles = "No files yet"
	MsgBrowse        = "Browse"
)

// Supported lists the catalog languages; the first entry is the default.
var Supported = []language.Tag{language.Russian, language.English}

// Default is the fallback language.
var Default = Supported[0]

var russian = map[string]string{
	MsgNoFiles:              "Отсутствуют файлы",
	MsgUnsupportedExtension: "Ошибка загрузки. Допускаются только файлы с расширениями: %s.",
	MsgPayloadTooLarge:      "Ошибка загрузки! Размер файла %s превосходит %d MB",
	MsgRequestTooLarge:      "Ошибка загрузки! Размер запроса превосходит %d MB",
	MsgCorruptImage:         "Ошибка загрузки! Файл повреждён, попробуйте изменить его представление цвета на RGB, или попробуйте загрузить другой файл.",
	MsgSavedFiles:           "Сохранены файлы %s",
	MsgFileDeleted:          "Файл удалён!",
	MsgFileNotFound:         "Error: file not found",
	MsgProjectNotFound:      "Проект не найден",
	MsgAccessDenied:         "Доступ запрещён",
	MsgInternalError:        "Внутренняя ошибка сервера, попробуйте позже",

	MsgProjects:      "Проекты",
	MsgUpload:        "Загрузить",
	MsgAllowedTypes:  "Допустимые расширения: %s",
	MsgSizeLimit:     "Максимальный размер файла: %s",
	MsgNoStoredFiles: "Файлов пока нет",
	MsgBrowse:        "Просмотр",
}

var matcher = language.NewMatcher(Supported)

func init() {
	for key, text := range russian {
		_ = message.SetString(language.Russian, key, text)
		_ = message.SetString(language.English, key, key)
	}
}

// Parse resolves a configured language name ("ru", "en-US", ...) to one of
// the supported tags.
func Parse(name string) (language.Tag, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return language.Und, err
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx], nil
}

// Negotiate picks the best supported language for an Accept-Language header
// value, falling back to fallback when nothing matches.
func Negotiate(acceptLanguage string, fallback language.Tag) language.Tag {
	if acceptLanguage == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return Supported[idx]
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
