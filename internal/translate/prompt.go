package translate

import "strings"

// BookInfoLabels are the line labels the book-info prompt asks the
// provider to fill, in order.
var BookInfoLabels = []string{
	"Автор",
	"Страна",
	"Язык",
	"Первая публикация",
	"Годы",
	"Жанр",
	"Герои",
	"Сюжет",
	"Город",
	"Контекст",
}

// bookInfoHints describe what goes after each label. Same order as
// BookInfoLabels.
var bookInfoHints = []string{
	"<имя автора>",
	"<страна написания>",
	"<язык оригинала>",
	"<год публикации>",
	"<годы написания или публикации, если отличаются>",
	"<основной жанр>",
	"<2–5 главных героев>",
	"<очень краткое описание, 1–2 предложения>",
	"<город или города событий>",
	"<краткий историко-культурный контекст, 1 фраза>",
}

// OverviewPrompt builds the English prompt used when /ask gets only a title.
func OverviewPrompt(title string) string {
	return "Provide a concise, accurate overview of the book titled '" + title +
		"'. Include author, publication context, main plot, key themes, and notable insights."
}

// BookInfoPrompt builds the Russian prompt that asks the provider for
// exactly ten labeled lines about a book. We don't parse the answer; the
// layout is a request to the provider, not something we enforce.
func BookInfoPrompt(subject string) string {
	var b strings.Builder

	b.WriteString("Найди информацию об этой книге: '" + strings.TrimSpace(subject) + "'.\n")
	b.WriteString("Ответь на русском языке, кратко и по делу.\n")
	b.WriteString("Сохрани структуру ровно из 10 строк с метками (свободный текст, не JSON), " +
		"без маркеров, цифр и лишних комментариев, без пустых строк. Одна строка — одна метка:\n")
	for i, label := range BookInfoLabels {
		b.WriteString(label + ": " + bookInfoHints[i] + "\n")
	}
	b.WriteString("Если данных нет, пиши 'неизвестно' для соответствующего пункта. Не выдумывай факты.")

	return b.String()
}
