package tui

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/theirongolddev/canasta/internal/config"
	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the fields edited by the setup wizard.
type SetupValues struct {
	Host     string
	Port     string
	User     string
	KeyFile  string
	Password string
	FilePath string
	Months   string
	Theme    string
}

// SetupValuesFrom seeds the wizard with the current configuration.
// The password is never pre-filled.
func SetupValuesFrom(cfg config.Config) SetupValues {
	months := strings.Join(cfg.Series.Months, ",")
	if slices.Equal(cfg.Series.Months, config.DefaultMonths()) {
		months = "2022-01..2022-12"
	}
	return SetupValues{
		Host:     cfg.Remote.Host,
		Port:     strconv.Itoa(cfg.Remote.Port),
		User:     cfg.Remote.User,
		KeyFile:  cfg.Remote.KeyFile,
		FilePath: cfg.Remote.FilePath,
		Months:   months,
		Theme:    theme.ByName(cfg.Appearance.Theme).Name,
	}
}

// Apply copies the wizard values into cfg. An empty password keeps the
// existing one.
func (v SetupValues) Apply(cfg *config.Config) error {
	port, err := strconv.Atoi(strings.TrimSpace(v.Port))
	if err != nil {
		return errors.New("port must be a number")
	}
	months, err := config.ExpandMonths(v.Months)
	if err != nil {
		return err
	}

	cfg.Remote.Host = strings.TrimSpace(v.Host)
	cfg.Remote.Port = port
	cfg.Remote.User = strings.TrimSpace(v.User)
	cfg.Remote.KeyFile = strings.TrimSpace(v.KeyFile)
	if v.Password != "" {
		cfg.Remote.Password = v.Password
	}
	cfg.Remote.FilePath = strings.TrimSpace(v.FilePath)
	cfg.Series.Months = months
	cfg.Appearance.Theme = v.Theme
	return nil
}

// NewSetupForm builds the configuration wizard bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to canasta").
				Description("Transactions are read over SSH from one delimited file.\nLeave a field as is to keep the current value."),
			huh.NewInput().
				Title("SSH host").
				Value(&vals.Host),
			huh.NewInput().
				Title("SSH port").
				Value(&vals.Port).
				Validate(validatePort),
			huh.NewInput().
				Title("SSH user").
				Value(&vals.User),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Private key file").
				Description("Optional. Tried before the password.").
				Value(&vals.KeyFile),
			huh.NewInput().
				Title("Password").
				Description("Blank keeps the current one. "+config.EnvPassword+" also works.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.Password),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Transactions file").
				Value(&vals.FilePath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("file path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Months").
				Description("Comma list or range, base month first: 2022-01..2022-12").
				Value(&vals.Months).
				Validate(func(s string) error {
					months, err := config.ExpandMonths(s)
					if err == nil && len(months) == 0 {
						return errors.New("at least one month is required")
					}
					return err
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}
