// Package command extracts the optional model selector and the prompt from a
// Telegram message.
package command

import (
	"strings"
	"unicode"
)

// Resolver looks up model ids by alias.
type Resolver interface {
	Resolve(alias string) (string, bool)
	DefaultID() string
	DefaultAlias() string
}

// Parsed is the result of parsing one message.
type Parsed struct {
	Alias   string
	ModelID string
	Prompt  string
	// Explicit is true when the message named a known alias.
	Explicit bool
}

// Empty reports whether there is nothing to generate.
func (p Parsed) Empty() bool { return strings.TrimSpace(p.Prompt) == "" }

var helpCommands = map[string]bool{"start": true, "help": true}

// IsHelp reports whether text starts with /start or /help.
func IsHelp(text string) bool {
	name, _, ok := slashCommand(text)
	return ok && helpCommands[strings.ToLower(name)]
}

// Parse accepts "alias: prompt" and "/alias prompt". Text without a known
// alias is used verbatim as the prompt for the default model.
func Parse(text string, r Resolver) Parsed {
	if name, rest, ok := slashCommand(text); ok {
		if id, known := r.Resolve(name); known {
			return Parsed{Alias: strings.ToLower(name), ModelID: id, Prompt: strings.TrimSpace(rest), Explicit: true}
		}
	}
	if head, rest, ok := strings.Cut(text, ":"); ok {
		head = strings.TrimSpace(head)
		if head != "" && !strings.ContainsFunc(head, unicode.IsSpace) {
			if id, known := r.Resolve(head); known {
				return Parsed{Alias: strings.ToLower(head), ModelID: id, Prompt: strings.TrimSpace(rest), Explicit: true}
			}
		}
	}
	return Parsed{Alias: r.DefaultAlias(), ModelID: r.DefaultID(), Prompt: text}
}

// slashCommand splits "/name@bot rest" into name and rest.
func slashCommand(text string) (name, rest string, ok bool) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token := text[1:]
	if i := strings.IndexFunc(token, unicode.IsSpace); i >= 0 {
		token, rest = token[:i], token[i:]
	}
	if at := strings.IndexByte(token, '@'); at >= 0 {
		token = token[:at]
	}
	if token == "" {
		return "", "", false
	}
	return token, rest, true
}
