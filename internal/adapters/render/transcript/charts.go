package transcript

import (
	"fmt"
	"strings"

	"github.com/bnema/sage/internal/domain"
)

const helpChart = `| **Profiles** | *Models and endpoints* |
| --- | --- |
| ` + "`!profile add <alias> <model> <endpoint> [context]`" + ` | Add a model profile. |
| ` + "`!profile remove <alias>`" + ` | Remove a profile. |
| ` + "`!profile list`" + ` | List configured profiles. |
| ` + "`!profile switch <alias>`" + ` | Switch to another profile. |

| **Configuration** | *Persistent settings* |
| --- | --- |
| ` + "`!config`" + ` | Show current settings and file locations. |
| ` + "`!consume`" + ` | Toggle reasoning panel consumption. |
| ` + "`!ctx <n>`" + ` | Set the context length of the active profile. |
| ` + "`!key`" + ` | Store an API key for the active profile. |
| ` + "`!prompt <text>`" + ` | Set the system prompt. Applies to the next session. |
| ` + "`!rate <hz>`" + ` | Set the refresh rate of the live view. |
| ` + "`!theme <name>`" + ` | Set the code-block theme. |

| **Sessions** | *Saving and restoring* |
| --- | --- |
| ` + "`!s` or `!save <name>`" + ` | Save the current session. |
| ` + "`!l` or `!load <name>`" + ` | Load a saved session and replay it. |
| ` + "`!sum` or `!summary`" + ` | Summarize and start a fresh session from the summary. |
| ` + "`!sessions`" + ` | List saved sessions. |
| ` + "`!delete <name>`" + ` | Delete a saved session. |
| ` + "`!reset`" + ` | Start a fresh session. |
| ` + "`!clear`" + ` | Clear the terminal. |
| ` + "`!q` or `!quit`" + ` | Exit. |
| ` + "`Ctrl+C`" + ` | Abort the current response. |

| **Context** | *Attachments and environment* |
| --- | --- |
| ` + "`!a` or `!attach <path>`" + ` | Attach a file, or every text file of a directory. |
| ` + "`!web <url>`" + ` | Attach the text of a website. |
| ` + "`!attachments`" + ` | List attachments. |
| ` + "`!purge <n>`" + ` | Remove one attachment, or its whole directory group. |
| ` + "`!purge all`" + ` | Remove every attachment. |
| ` + "`!cd <dir>`" + ` | Change the working directory. |
| ` + "`!cp`" + ` | Copy the code blocks of the last response. |
`

func (p *Printer) Help() error {
	return p.Markdown(helpChart)
}

// Locations are the directories shown under the settings chart.
type Locations struct {
	Settings   string
	Sessions   string
	Logs       string
	WorkingDir string
}

// Settings shows values in the order of keys.
func (p *Printer) Settings(keys []string, values map[string]string, loc Locations) error {
	var b strings.Builder
	b.WriteString("| **Setting** | *Value* |\n| --- | --- |\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "| **%s** | %s |\n", key, escapeCell(values[key]))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Settings file: `%s`\n", loc.Settings)
	fmt.Fprintf(&b, "- Sessions: `%s`\n", loc.Sessions)
	fmt.Fprintf(&b, "- Logs: `%s`\n", loc.Logs)
	fmt.Fprintf(&b, "- Working directory: `%s`\n", loc.WorkingDir)

	return p.Markdown(b.String())
}

func (p *Printer) Profiles(profiles []domain.Profile, active string) error {
	var b strings.Builder
	b.WriteString("| | **Alias** | **Model** | **Endpoint** | **Context** |\n| --- | --- | --- | --- | --- |\n")
	for _, profile := range profiles {
		mark := ""
		if profile.Alias == active {
			mark = "active"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n", mark, escapeCell(profile.Alias), escapeCell(profile.Model), escapeCell(profile.Endpoint), profile.ContextLength)
	}
	return p.Markdown(b.String())
}

func (p *Printer) Sessions(infos []domain.SessionInfo) error {
	if len(infos) == 0 {
		return p.Notice("No saved sessions.")
	}

	var b strings.Builder
	b.WriteString("| **Name** | **Profile** | **Messages** | **Updated** |\n| --- | --- | --- | --- |\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", escapeCell(info.Name), escapeCell(info.Profile), info.Messages, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return p.Markdown(b.String())
}

// Attachments lists markers numbered from 1, the way purge addresses them.
func (p *Printer) Attachments(markers []domain.Marker) error {
	if len(markers) == 0 {
		return p.Notice("No attachments.")
	}

	var b strings.Builder
	b.WriteString("| **#** | **Kind** | **Source** |\n| --- | --- | --- |\n")
	for i, m := range markers {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i+1, m.Kind, escapeCell(m.SourceID))
	}
	return p.Markdown(b.String())
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
