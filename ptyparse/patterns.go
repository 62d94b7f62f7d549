package ptyparse

// Built-in line patterns. Lines are matched after ANSI stripping.
const (
	// Text allowed before a prompt glyph: an optional "(venv)" group, then
	// either a word followed by whitespace or a word glued to the glyph that
	// carries a user, host or path character ("user@host:~$", "bash-5.1$").
	// A plain word glued to the glyph, like "C#", is not a prompt.
	promptPrefix = `(?:\([^)]*\)\s*)?(?:\S*[^\s$#>❯›➜]\s|\S*[@:/~\\-][^\s$#>❯›➜]*)?`

	// A bare shell prompt with nothing typed after it: "$", "user@host:~$ ",
	// "(venv) dir ❯", "C:\>", ">>>" or a lone zsh "%". '>' only counts on
	// its own or after a drive or path separator, so "</tag>" is not one.
	defaultPromptPattern = `^\s*` + promptPrefix + `[$#❯›➜]\s*$` +
		`|^\s*(?:PS )?(?:>{1,3}|\S*[:\\]>)\s*$` +
		`|^\s*%\s*$`

	// A prompt followed by a typed command: "$ ls -la". '>' and '#' are
	// left out so markdown quotes and headings are not mistaken for input.
	promptInputPattern = `^\s*` + promptPrefix + `[$❯›➜]\s+(\S.*)$`

	// A tool call header: "⏺ Read(file.txt)", "● Bash (go test ./...)".
	defaultToolMarkerPattern = `^\s*[⏺●]\s*([A-Z][\w-]*)\s*(?:\((.*)\))?\s*$`

	// Any line starting with a marker glyph, parsable as a call or not.
	looseToolMarkerPattern = `^\s*[⏺●]`

	defaultThinkingOpenPattern  = `(?i)<(?:thinking|think)>`
	defaultThinkingClosePattern = `(?i)</(?:thinking|think)>`

	fenceOpenPattern  = "^\\s*```\\s*([\\w+#.-]*)\\s*$"
	fenceClosePattern = "^\\s*```\\s*$"

	defaultLanguage = "text"
)
