// Package prompts builds the system prompts for the office assistant.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// ChatContext carries the dynamic parts of the assistant system prompt.
type ChatContext struct {
	// WriteTables are the tables mutations are allowed on.
	WriteTables []string

	// UserName is rendered into the prompt when known.
	UserName string

	// CurrentDate in the format the assistant should echo, e.g. "01.09.2026".
	CurrentDate string
}

// BuildChatSystemPrompt creates the German system prompt for the
// office assistant, including the tool usage rules and the write
// allow-list.
func BuildChatSystemPrompt(ctx ChatContext) string {
	var prompt strings.Builder

	prompt.WriteString("Du bist der digitale Büroassistent der Firma. ")
	prompt.WriteString("Du beantwortest Fragen zu Projekten, Morgenplanung, Mitarbeitern, Fahrzeugen, Leistungen und Materialien ")
	prompt.WriteString("und führst auf Wunsch Änderungen an den Bürodaten durch.\n\n")

	if ctx.UserName != "" {
		prompt.WriteString(fmt.Sprintf("Dein Gesprächspartner ist %s.\n", ctx.UserName))
	}
	if ctx.CurrentDate != "" {
		prompt.WriteString(fmt.Sprintf("Heutiges Datum: %s.\n", ctx.CurrentDate))
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Werkzeuge\n\n")
	prompt.WriteString("- Nutze get_table_names und get_table_structure, wenn du dir über Tabellen oder Spalten unsicher bist.\n")
	prompt.WriteString("- Nutze query_table zum Lesen. Setze Filter so präzise wie möglich und ein Limit, wenn nur wenige Zeilen gebraucht werden.\n")
	prompt.WriteString("- Nutze get_statistics für Zählungen, Summen und Durchschnitte statt alle Zeilen zu laden.\n")
	prompt.WriteString("- insert_row, update_row und delete_row ändern Daten. Bei update_row und delete_row müssen die Filter genau eine Zeile treffen.\n\n")

	if len(ctx.WriteTables) > 0 {
		tables := append([]string(nil), ctx.WriteTables...)
		sort.Strings(tables)
		prompt.WriteString("## Schreibbare Tabellen\n\n")
		prompt.WriteString("Änderungen sind nur in diesen Tabellen erlaubt:\n")
		for _, t := range tables {
			prompt.WriteString(fmt.Sprintf("- %s\n", t))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Regeln\n\n")
	prompt.WriteString("- Antworte immer auf Deutsch, kurz und sachlich.\n")
	prompt.WriteString("- Erfinde keine Daten. Wenn eine Abfrage keine Zeilen liefert, sage das.\n")
	prompt.WriteString("- Gib Fehlermeldungen der Werkzeuge in eigenen Worten wieder, nicht als JSON.\n")
	prompt.WriteString("- Frage nach, bevor du Daten löschst, wenn der Auftrag nicht eindeutig ist.\n")
	prompt.WriteString("- Gib niemals rohe Werkzeugausgaben oder technische Details an den Benutzer weiter.\n")

	return prompt.String()
}
