package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/TradeCortex/config"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]+$`)

var analystLabels = map[string]string{
	config.AnalystMarket:       "Market Analyst",
	config.AnalystSocial:       "Social Media Analyst",
	config.AnalystNews:         "News Analyst",
	config.AnalystFundamentals: "Fundamentals Analyst",
}

// depthOptions maps research depth labels to debate rounds.
var depthOptions = []struct {
	label  string
	rounds int
}{
	{"Shallow - quick research, few debate rounds", 1},
	{"Medium - moderate debate rounds", 3},
	{"Deep - comprehensive research, in depth debate", 5},
}

func validateTicker(val any) error {
	s, _ := val.(string)
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return fmt.Errorf("ticker symbol cannot be empty")
	}
	if len(s) > 12 {
		return fmt.Errorf("ticker symbol too long (max 12 characters)")
	}
	if !tickerPattern.MatchString(s) {
		return fmt.Errorf("invalid ticker format")
	}
	return nil
}

func validateDate(val any) error {
	s, _ := val.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	if d.After(time.Now()) {
		return fmt.Errorf("analysis date cannot be in the future")
	}
	return nil
}

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the ticker symbol to analyze (e.g. SPY, AAPL, 700.HK):",
	}
	if err := survey.AskOne(prompt, &ticker, survey.WithValidator(validateTicker)); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAnalysisDate asks for YYYY-MM-DD, defaulting to today.
func PromptForAnalysisDate() (string, error) {
	today := time.Now().Format(time.DateOnly)
	var date string
	prompt := &survey.Input{
		Message: "Enter the analysis date (YYYY-MM-DD):",
		Default: today,
	}
	if err := survey.AskOne(prompt, &date, survey.WithValidator(validateDate)); err != nil {
		return "", err
	}
	if date = strings.TrimSpace(date); date == "" {
		return today, nil
	}
	return date, nil
}

// PromptForAnalysts returns the selected analysts in pipeline order.
func PromptForAnalysts() ([]string, error) {
	options := make([]string, 0, len(config.AllAnalysts))
	for _, a := range config.AllAnalysts {
		options = append(options, analystLabels[a])
	}

	var picked []string
	prompt := &survey.MultiSelect{
		Message: "Select your analyst team:",
		Options: options,
		Default: options,
		Help:    "Space to toggle, enter to confirm.",
	}
	if err := survey.AskOne(prompt, &picked, survey.WithValidator(survey.MinItems(1))); err != nil {
		return nil, err
	}
	return analystsFromLabels(picked), nil
}

func analystsFromLabels(labels []string) []string {
	chosen := make(map[string]bool, len(labels))
	for _, l := range labels {
		chosen[l] = true
	}
	var out []string
	for _, a := range config.AllAnalysts {
		if chosen[analystLabels[a]] {
			out = append(out, a)
		}
	}
	return out
}

// PromptForResearchDepth returns the number of debate rounds.
func PromptForResearchDepth() (int, error) {
	options := make([]string, len(depthOptions))
	for i, o := range depthOptions {
		options[i] = o.label
	}
	var picked string
	prompt := &survey.Select{
		Message: "Select research depth:",
		Options: options,
		Default: options[0],
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return 0, err
	}
	return roundsForLabel(picked), nil
}

func roundsForLabel(label string) int {
	for _, o := range depthOptions {
		if o.label == label {
			return o.rounds
		}
	}
	return depthOptions[0].rounds
}

// PromptForConfirmation shows the run summary and asks to proceed.
func PromptForConfirmation(ticker, date string, analysts []string, rounds int) (bool, error) {
	names := make([]string, len(analysts))
	for i, a := range analysts {
		names[i] = analystLabels[a]
	}
	var ok bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Analyze %s on %s with %s, %d debate round(s)?",
			ticker, date, strings.Join(names, ", "), rounds),
		Default: true,
	}
	err := survey.AskOne(prompt, &ok)
	return ok, err
}
