// ABOUTME: install-skill copies the embedded fitlog skill into ~/.claude/skills/fitlog.
// ABOUTME: An installed copy that already matches is left alone without prompting.
package main

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

var (
	skillSkipConfirm bool
	skillPrint       bool
)

var installSkillCmd = &cobra.Command{
	Use:         "install-skill",
	Short:       "Install the fitlog skill for Claude Code",
	Annotations: map[string]string{configOnly: "true"},
	Long: `Copy the fitlog skill to ~/.claude/skills/fitlog/SKILL.md.

The skill tells Claude Code when to reach for fitlog and which commands log
meals, sets, and recovery. Re-run it after upgrading fitlog; a skill that is
already current is left untouched. Use --print to read it without installing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if skillPrint {
			content, _, err := skillContent()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		return installSkill(home, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	installSkillCmd.Flags().BoolVarP(&skillSkipConfirm, "yes", "y", false, "Skip confirmation prompt")
	installSkillCmd.Flags().BoolVar(&skillPrint, "print", false, "Write the skill to stdout instead of installing it")
	rootCmd.AddCommand(installSkillCmd)
}

// skillPath returns where the skill file is installed under home.
func skillPath(home string) string {
	return filepath.Join(home, ".claude", "skills", "fitlog", "SKILL.md")
}

type skillMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// skillContent returns the embedded skill and its frontmatter.
func skillContent() ([]byte, skillMeta, error) {
	var meta skillMeta
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return nil, meta, fmt.Errorf("read embedded skill: %w", err)
	}
	rest, ok := bytes.CutPrefix(content, []byte("---\n"))
	front, _, closed := bytes.Cut(rest, []byte("\n---"))
	if !ok || !closed {
		return nil, meta, errors.New("embedded skill has no frontmatter")
	}
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return nil, meta, fmt.Errorf("parse skill frontmatter: %w", err)
	}
	return content, meta, nil
}

func installSkill(home string, in io.Reader, out io.Writer) error {
	content, meta, err := skillContent()
	if err != nil {
		return err
	}
	dest := skillPath(home)
	faint := color.New(color.Faint)

	current, err := os.ReadFile(dest)
	switch {
	case err == nil && bytes.Equal(current, content):
		_, _ = color.New(color.FgGreen).Fprintf(out, "✓ %s skill is up to date\n", meta.Name)
		_, _ = faint.Fprintf(out, "  %s\n", dest)
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("check installed skill: %w", err)
	}

	action := "install at"
	if err == nil {
		action = "replace"
	}
	_, _ = fmt.Fprintf(out, "%s: %s\n", color.New(color.Bold).Sprint(meta.Name), meta.Description)
	_, _ = faint.Fprintf(out, "  %s %s\n", action, dest)

	if !skillSkipConfirm {
		ok, err := confirm(in, out, "Go ahead?")
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(out, "Nothing installed.")
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create skill directory: %w", err)
	}
	if err := os.WriteFile(dest, content, 0o600); err != nil {
		return fmt.Errorf("write skill: %w", err)
	}
	_, _ = color.New(color.FgGreen).Fprintf(out, "✓ %s skill installed\n", meta.Name)
	_, _ = fmt.Fprintln(out, `Try it: ask Claude Code to "log two eggs and toast for breakfast".`)
	return nil
}

// confirm asks a yes/no question. Only y or yes count; EOF is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
