package telegram

import "strings"

// MarkdownV2 reserves these characters outside code entities; an
// unescaped one anywhere in the text makes the API reject the message.
const reservedChars = `_*[]()~` + "`" + `>#+-=|{}.!\`

// EscapeMarkdownV2 converts lightly-marked-up model output into text the
// Bot API accepts as MarkdownV2. Fenced code blocks and inline code are
// preserved as code entities, **bold** becomes MarkdownV2 bold, and every
// reserved character in plain text is escaped. A naive pass-through
// corrupts any message containing ".", "-", "!" and similar punctuation.
func EscapeMarkdownV2(text string) string {
	var out strings.Builder
	segments := strings.Split(text, "```")
	for i, segment := range segments {
		if i%2 == 1 && i < len(segments)-1 {
			// Inside a closed fence: only backslash and backtick are
			// escaped within pre entities.
			out.WriteString("```")
			out.WriteString(escapeCode(segment))
			out.WriteString("```")
			continue
		}
		if i%2 == 1 {
			// Unterminated fence: treat the remainder as plain text.
			out.WriteString(escapePlain("```" + segment))
			continue
		}
		out.WriteString(escapeInline(segment))
	}
	return out.String()
}

// escapeInline handles a segment outside fenced blocks: inline code spans
// stay code, the rest is escaped plain text with bold conversion.
func escapeInline(text string) string {
	var out strings.Builder
	spans := strings.Split(text, "`")
	for i, span := range spans {
		if i%2 == 1 && i < len(spans)-1 {
			out.WriteString("`")
			out.WriteString(escapeCode(span))
			out.WriteString("`")
			continue
		}
		if i%2 == 1 {
			out.WriteString(escapePlain("`" + span))
			continue
		}
		out.WriteString(escapeBold(span))
	}
	return out.String()
}

// escapeBold converts **text** pairs to MarkdownV2 single-asterisk bold.
func escapeBold(text string) string {
	var out strings.Builder
	parts := strings.Split(text, "**")
	for i, part := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			out.WriteString("*")
			out.WriteString(escapePlain(part))
			out.WriteString("*")
			continue
		}
		if i%2 == 1 {
			out.WriteString(escapePlain("**" + part))
			continue
		}
		out.WriteString(escapePlain(part))
	}
	return out.String()
}

func escapePlain(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(reservedChars, r) {
			out.WriteByte('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func escapeCode(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, "`", "\\`")
}
