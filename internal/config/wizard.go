package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

var originChoices = []string{
	"hosted site (production backend)",
	"local development (http://localhost, backend on 127.0.0.1:8000)",
	"custom origin",
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pixelfit! Let's configure the client.")
	fmt.Println()

	cfg := DefaultConfig()

	originPrompt := promptui.Select{
		Label: "Where are the pages served from",
		Items: originChoices,
	}
	idx, _, err := originPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("origin selection: %w", err)
	}
	switch idx {
	case 1:
		cfg.PageOrigin = "http://localhost:5500"
	case 2:
		p := promptui.Prompt{
			Label:    "Page origin",
			Default:  DefaultPageOrigin,
			Validate: validateOrigin,
		}
		origin, err := p.Run()
		if err != nil {
			return nil, fmt.Errorf("page origin: %w", err)
		}
		cfg.PageOrigin = strings.TrimRight(origin, "/")
	}

	basePrompt := promptui.Prompt{
		Label:    "Production backend",
		Default:  cfg.ProductionBase,
		Validate: validateOrigin,
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("production backend: %w", err)
	}
	cfg.ProductionBase = strings.TrimRight(base, "/")

	outputPrompt := promptui.Prompt{
		Label:   "Folder for downloaded archives",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = outputDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateOrigin(s string) error {
	_, err := parseOrigin("origin", strings.TrimSpace(s))
	return err
}

// splitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty items.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// ParsePolicies reads "page=policy" pairs separated by commas, as accepted
// by the --policy flag.
func ParsePolicies(s string) ([]PagePolicy, error) {
	var out []PagePolicy
	for _, pair := range splitAndTrim(s) {
		page, policy, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid policy %q: want page=policy", pair)
		}
		out = append(out, PagePolicy{Page: strings.TrimSpace(page), Policy: strings.TrimSpace(policy)})
	}
	return out, nil
}
