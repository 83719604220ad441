package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/service/questgen"
)

func newGenerateCmd() *cobra.Command {
	var (
		level          int
		characterClass string
		useAI          bool
	)

	cmd := &cobra.Command{
		Use:   "generate <task>",
		Short: "Print a quest draft for a task without storing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				return fmt.Errorf("task must not be empty")
			}
			if level < 1 {
				return fmt.Errorf("level must be at least 1")
			}
			if characterClass != "" && !models.IsValidCharacterClass(characterClass) {
				return fmt.Errorf("unknown character class %q", characterClass)
			}

			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			generator, err := buildGenerator(cmd.Context(), cfg, nil, log)
			if err != nil {
				return err
			}

			result := generator.Generate(cmd.Context(), questgen.Request{
				Task:           task,
				Level:          level,
				CharacterClass: characterClass,
				UseAI:          useAI,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVar(&level, "level", 1, "Player level used for XP scaling")
	cmd.Flags().StringVar(&characterClass, "class", "", "Character class used to flavor the quest")
	cmd.Flags().BoolVar(&useAI, "ai", true, "Ask the configured LLM provider before falling back to templates")
	return cmd
}
