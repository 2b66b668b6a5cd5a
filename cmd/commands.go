package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bnema/sage/internal/adapters/prompt"
	"github.com/bnema/sage/internal/adapters/render/transcript"
	"github.com/bnema/sage/internal/application"
	"github.com/bnema/sage/internal/domain"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// errQuit ends the chat loop.
var errQuit = errors.New("quit")

// errCancelled marks an argument prompt the operator left empty.
var errCancelled = errors.New("cancelled")

type commandFunc func(c *chatLoop, ctx context.Context, arg string) error

var bangCommands = map[string]commandFunc{
	"!h":           (*chatLoop).help,
	"!help":        (*chatLoop).help,
	"!q":           (*chatLoop).quit,
	"!quit":        (*chatLoop).quit,
	"!config":      (*chatLoop).config,
	"!clear":       (*chatLoop).clear,
	"!consume":     (*chatLoop).consume,
	"!ctx":         (*chatLoop).contextLength,
	"!rate":        (*chatLoop).refreshRate,
	"!theme":       (*chatLoop).theme,
	"!prompt":      (*chatLoop).systemPrompt,
	"!key":         (*chatLoop).apiKey,
	"!profile":     (*chatLoop).profile,
	"!s":           (*chatLoop).save,
	"!save":        (*chatLoop).save,
	"!l":           (*chatLoop).load,
	"!load":        (*chatLoop).load,
	"!sessions":    (*chatLoop).listSessions,
	"!delete":      (*chatLoop).deleteSession,
	"!reset":       (*chatLoop).reset,
	"!sum":         (*chatLoop).summarize,
	"!summary":     (*chatLoop).summarize,
	"!a":           (*chatLoop).attach,
	"!attach":      (*chatLoop).attach,
	"!web":         (*chatLoop).web,
	"!attachments": (*chatLoop).listAttachments,
	"!purge":       (*chatLoop).purge,
	"!cd":          (*chatLoop).changeDir,
	"!cp":          (*chatLoop).copySnippets,
}

// dispatch runs a bang command. It reports whether the loop should end.
func (c *chatLoop) dispatch(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	command, ok := bangCommands[strings.ToLower(name)]
	if !ok {
		return false, c.printer.Notice("Unknown command %s. Type !help for the list.", name)
	}

	err := command(c, ctx, strings.TrimSpace(arg))
	switch {
	case errors.Is(err, errQuit):
		return true, nil
	case errors.Is(err, errCancelled), errors.Is(err, prompt.ErrInterrupted):
		return false, c.printer.Notice("Cancelled.")
	default:
		return false, err
	}
}

// ask returns arg, or prompts for it when arg is empty.
func (c *chatLoop) ask(ctx context.Context, arg, label string) (string, error) {
	return c.askWith(ctx, arg, label, nil)
}

// askWith is ask with completion while the operator types.
func (c *chatLoop) askWith(ctx context.Context, arg, label string, complete prompt.Completer) (string, error) {
	if arg != "" {
		return arg, nil
	}

	value, err := c.reader.ReadLineWith(ctx, label, complete)
	if errors.Is(err, io.EOF) {
		return "", errCancelled
	}
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errCancelled
	}
	return value, nil
}

// offerSave asks to save a session with unsaved history before it is
// replaced. It returns errCancelled when the operator interrupts.
func (c *chatLoop) offerSave(ctx context.Context) error {
	if c.session.Len() <= 1 {
		return nil
	}

	choice, err := c.reader.ReadLine(ctx, "Save first? (y/N):")
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if answer := strings.ToLower(strings.TrimSpace(choice)); answer == "y" || answer == "yes" {
		return c.save(ctx, "")
	}
	return nil
}

func (c *chatLoop) help(_ context.Context, _ string) error {
	return c.printer.Help()
}

func (c *chatLoop) quit(ctx context.Context, _ string) error {
	if err := c.offerSave(ctx); err != nil {
		return err
	}
	return errQuit
}

func (c *chatLoop) config(_ context.Context, _ string) error {
	wd, _ := os.Getwd()
	return c.printer.Settings(application.SettingKeys, application.Values(*c.settings), transcript.Locations{
		Settings:   c.app.paths.Settings,
		Sessions:   c.app.paths.Sessions,
		Logs:       c.app.paths.Logs,
		WorkingDir: wd,
	})
}

func (c *chatLoop) clear(_ context.Context, _ string) error {
	termenv.NewOutput(c.out).ClearScreen()
	return nil
}

func (c *chatLoop) consume(ctx context.Context, _ string) error {
	on, err := c.app.profiles.ToggleConsume(ctx, c.settings)
	if err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	return c.printer.Notice("Reasoning panel consumption is %s.", state)
}

func (c *chatLoop) contextLength(ctx context.Context, arg string) error {
	value, err := c.ask(ctx, arg, "Context length:")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("context length %q is not a number", value)
	}
	if err := c.app.profiles.SetContextLength(ctx, c.settings, n); err != nil {
		return err
	}
	c.status(0)
	return nil
}

func (c *chatLoop) refreshRate(ctx context.Context, arg string) error {
	value, err := c.ask(ctx, arg, "Refresh rate (Hz):")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("refresh rate %q is not a number", value)
	}
	if err := c.app.profiles.SetRefreshRate(ctx, c.settings, n); err != nil {
		return err
	}
	return c.printer.Notice("Refresh rate set to %d Hz.", n)
}

func (c *chatLoop) theme(ctx context.Context, arg string) error {
	name, err := c.ask(ctx, arg, "Code theme:")
	if err != nil {
		return err
	}
	if err := c.app.profiles.SetTheme(ctx, c.settings, name); err != nil {
		return err
	}
	if err := c.printer.SetTheme(name); err != nil {
		return err
	}
	return c.printer.Notice("Code theme set to %s.", name)
}

func (c *chatLoop) systemPrompt(ctx context.Context, arg string) error {
	text, err := c.ask(ctx, arg, "System prompt:")
	if err != nil {
		return err
	}
	if err := c.app.profiles.SetSystemPrompt(ctx, c.settings, text); err != nil {
		return err
	}
	return c.printer.Notice("System prompt updated. It applies to the next session.")
}

func (c *chatLoop) apiKey(ctx context.Context, _ string) error {
	alias := c.settings.Active().Alias
	key, err := c.reader.ReadSecret(ctx, fmt.Sprintf("API key for %s:", alias))
	if errors.Is(err, io.EOF) {
		return errCancelled
	}
	if err != nil {
		return err
	}
	if err := c.app.profiles.SetAPIKey(ctx, alias, strings.TrimSpace(key)); err != nil {
		return err
	}
	return c.printer.Notice("API key stored for %s.", alias)
}

func (c *chatLoop) profile(ctx context.Context, arg string) error {
	sub, rest, _ := strings.Cut(arg, " ")
	fields := strings.Fields(rest)
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch strings.ToLower(sub) {
	case "list", "":
		return c.printer.Profiles(c.settings.Profiles, c.settings.Active().Alias)
	case "add":
		profile, err := c.askProfile(ctx, field(0), field(1), field(2), field(3))
		if err != nil {
			return err
		}
		if err := c.app.profiles.Add(ctx, c.settings, profile); err != nil {
			return err
		}
		return c.printer.Notice("Profile %s added.", profile.Alias)
	case "remove":
		alias, err := c.ask(ctx, field(0), "Profile to remove:")
		if err != nil {
			return err
		}
		if err := c.app.profiles.Remove(ctx, c.settings, alias); err != nil {
			return err
		}
		return c.printer.Notice("Profile %s removed. Active profile: %s.", alias, c.settings.Active().Alias)
	case "switch":
		alias, err := c.ask(ctx, field(0), "Switch to profile:")
		if err != nil {
			return err
		}
		if err := c.app.profiles.Switch(ctx, c.settings, alias); err != nil {
			return err
		}
		active := c.settings.Active()
		if err := c.printer.Notice("Switched to %s (%s).", active.Alias, active.Model); err != nil {
			return err
		}
		c.status(0)
		return nil
	default:
		return fmt.Errorf("unknown profile command %q; use list, add, remove or switch", sub)
	}
}

func (c *chatLoop) askProfile(ctx context.Context, alias, model, endpoint, contextLength string) (domain.Profile, error) {
	var err error
	if alias, err = c.ask(ctx, alias, "Profile alias:"); err != nil {
		return domain.Profile{}, err
	}
	if model, err = c.ask(ctx, model, "Model name:"); err != nil {
		return domain.Profile{}, err
	}
	if endpoint, err = c.ask(ctx, endpoint, "API endpoint:"); err != nil {
		return domain.Profile{}, err
	}

	profile := domain.DefaultProfile()
	profile.Alias, profile.Model, profile.Endpoint = alias, model, endpoint
	if contextLength != "" {
		n, err := strconv.Atoi(contextLength)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("context length %q is not a number", contextLength)
		}
		profile.ContextLength = n
	}
	return profile, nil
}

func (c *chatLoop) save(ctx context.Context, arg string) error {
	if arg == "" {
		arg = c.session.Name
	}
	name, err := c.ask(ctx, arg, "Session name:")
	if err != nil {
		return err
	}
	if err := c.app.sessions.Save(ctx, c.session, name); err != nil {
		return err
	}
	return c.printer.Notice("Session saved as %s.", name)
}

func (c *chatLoop) load(ctx context.Context, arg string) error {
	name, err := c.askWith(ctx, arg, "Session to load:", c.sessionNames(ctx))
	if err != nil {
		return err
	}
	if err := c.offerSave(ctx); err != nil {
		return err
	}

	session, err := c.app.sessions.Load(ctx, name)
	if err != nil {
		return err
	}
	c.session = session
	if err := c.printer.History(session); err != nil {
		return err
	}
	c.status(0)
	return nil
}

// sessionNames offers saved session names. Listing is skipped unless the
// prompt actually runs on a terminal.
func (c *chatLoop) sessionNames(ctx context.Context) prompt.Completer {
	if !c.reader.Interactive() {
		return nil
	}
	infos, err := c.app.sessions.List(ctx)
	if err != nil {
		c.app.logger.Debug("list sessions for completion", zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return prompt.Words(names...)
}

// commandNames offers every bang command at the main prompt.
func commandNames() prompt.Completer {
	names := make([]string, 0, len(bangCommands))
	for name := range bangCommands {
		names = append(names, name)
	}
	slices.Sort(names)
	return prompt.Words(names...)
}

func (c *chatLoop) listSessions(ctx context.Context, _ string) error {
	infos, err := c.app.sessions.List(ctx)
	if err != nil {
		return err
	}
	return c.printer.Sessions(infos)
}

func (c *chatLoop) deleteSession(ctx context.Context, arg string) error {
	name, err := c.askWith(ctx, arg, "Session to delete:", c.sessionNames(ctx))
	if err != nil {
		return err
	}
	if err := c.app.sessions.Delete(ctx, name); err != nil {
		return err
	}
	if c.session.Name == name {
		c.session.Name = ""
	}
	return c.printer.Notice("Session %s deleted.", name)
}

func (c *chatLoop) reset(_ context.Context, _ string) error {
	c.session = c.app.sessions.New(c.settings.SystemPrompt, c.settings.Active().Alias)
	if err := c.printer.Notice("Started a fresh session."); err != nil {
		return err
	}
	c.status(0)
	return nil
}

func (c *chatLoop) summarize(ctx context.Context, _ string) error {
	if c.session.Len() <= 1 {
		return c.printer.Notice("Nothing to summarize yet.")
	}
	if err := c.offerSave(ctx); err != nil {
		return err
	}

	result, err := c.app.chat.Summarize(ctx, c.session, application.TurnConfigFrom(*c.settings), c.renderer())
	if err != nil {
		return err
	}
	if result.Outcome.Phase != domain.PhaseComplete {
		return c.printer.Notice("Summary aborted. The session is unchanged.")
	}

	c.session.Name = ""
	if err := c.printer.Notice("Summary complete. A new session starts from it."); err != nil {
		return err
	}
	c.status(0)
	return nil
}

func (c *chatLoop) attach(ctx context.Context, arg string) error {
	path, err := c.askWith(ctx, arg, "Path to attach:", prompt.Paths(false))
	if err != nil {
		return err
	}

	return c.attachStaged(ctx, "Reading "+path+"...", func(ctx context.Context, staged *domain.Session) (application.AttachReport, error) {
		return c.app.attachments.AttachPath(ctx, staged, c.settings.Budget(), path)
	})
}

func (c *chatLoop) web(ctx context.Context, arg string) error {
	locator, err := c.ask(ctx, arg, "URL:")
	if err != nil {
		return err
	}

	return c.attachStaged(ctx, "Reading "+locator+"...", func(ctx context.Context, staged *domain.Session) (application.AttachReport, error) {
		return c.app.attachments.AttachWebsite(ctx, staged, c.settings.Budget(), locator)
	})
}

// attachStaged runs an attach against a copy of the session behind a
// spinner. The copy replaces the session only when the attach succeeds.
func (c *chatLoop) attachStaged(ctx context.Context, label string, attach func(context.Context, *domain.Session) (application.AttachReport, error)) error {
	staged := c.session.Clone()
	var report application.AttachReport
	err := runWithSpinner(ctx, c.out, c.tty, label, func(ctx context.Context) error {
		var err error
		report, err = attach(ctx, staged)
		return err
	})
	if err == nil {
		c.session.Commit(staged)
	}
	return c.finishAttach(report, err)
}

func (c *chatLoop) finishAttach(report application.AttachReport, err error) error {
	for _, skipped := range report.Skipped {
		_ = c.printer.Notice("Skipped %s: %s", skipped.Path, skipped.Reason)
	}
	if err != nil {
		return err
	}

	for _, source := range report.Attached {
		if err := c.printer.Notice("Attached %s", source); err != nil {
			return err
		}
	}
	c.reportTruncation(report.Truncation)
	c.status(0)
	return nil
}

func (c *chatLoop) listAttachments(_ context.Context, _ string) error {
	active := application.FindActive(c.session)
	markers := make([]domain.Marker, 0, len(active))
	for _, a := range active {
		markers = append(markers, a.Marker)
	}
	return c.printer.Attachments(markers)
}

func (c *chatLoop) purge(ctx context.Context, arg string) error {
	if strings.EqualFold(arg, "all") {
		freed := c.app.registry.PurgeAll(c.session)
		if err := c.printer.Notice("Purged every attachment (%d tokens).", freed); err != nil {
			return err
		}
		c.status(0)
		return nil
	}

	if len(application.FindActive(c.session)) == 0 {
		return c.printer.Notice("No attachments.")
	}
	if arg == "" {
		if err := c.listAttachments(ctx, ""); err != nil {
			return err
		}
	}
	value, err := c.ask(ctx, arg, "Attachment number:")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("attachment %q is not a number", value)
	}

	freed, err := c.app.registry.Purge(c.session, n-1)
	if err != nil {
		return err
	}
	if err := c.printer.Notice("Purged attachment %d (%d tokens).", n, freed); err != nil {
		return err
	}
	c.status(0)
	return nil
}

func (c *chatLoop) changeDir(ctx context.Context, arg string) error {
	dir, err := c.askWith(ctx, arg, "Directory:", prompt.Paths(true))
	if err != nil {
		return err
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("change directory: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("change directory: %w", err)
	}

	c.app.env.Invalidate()
	note := fmt.Sprintf("[SYSTEM NOTE: The working directory has changed to %s. New content is visible in [ENVIRONMENT CONTEXT].]", wd)
	c.session.Append(domain.NewMessage(domain.RoleUser, note, c.app.now()))
	truncation, err := c.app.ledger.EnforceBudget(c.session, c.settings.Budget())
	if err != nil {
		return err
	}
	c.reportTruncation(truncation)
	return c.printer.Notice("Working directory is now %s.", wd)
}

func (c *chatLoop) copySnippets(_ context.Context, _ string) error {
	last, ok := c.session.LastAssistant()
	if !ok {
		return c.printer.Notice("No response to copy from.")
	}
	blocks := application.CodeBlocks(last)
	if blocks == "" {
		return c.printer.Notice("No code blocks in the last response.")
	}
	if err := c.app.clipboard.WriteText(blocks); err != nil {
		return err
	}
	return c.printer.Copied(blocks)
}
