package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/config"
)

// Export formats offered by the wizard.
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatHTML   = "html"
	FormatSQLite = "sqlite"
)

// WizardConfig holds the answers of the export wizard. The last answers are
// saved and offered as defaults on the next run.
type WizardConfig struct {
	Format      string `json:"format"`
	OutputPath  string `json:"output_path"`
	Title       string `json:"title,omitempty"`
	WithDetails bool   `json:"with_details,omitempty"`
}

// Validate checks the format and path.
func (c WizardConfig) Validate() error {
	switch c.Format {
	case FormatSVG, FormatPNG, FormatHTML, FormatSQLite:
	default:
		return fmt.Errorf("unknown export format %q", c.Format)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}

// DefaultOutputPath names the output file for a format.
func DefaultOutputPath(format string) string {
	switch format {
	case FormatSQLite:
		return "techtree.sqlite3"
	case FormatHTML:
		return "techtree.html"
	case FormatPNG:
		return "techtree.png"
	default:
		return "techtree.svg"
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Wizard asks which export to produce.
type Wizard struct {
	config WizardConfig
}

// NewWizard starts from the saved answers, or from SVG defaults.
func NewWizard() *Wizard {
	cfg := WizardConfig{Format: FormatSVG, OutputPath: DefaultOutputPath(FormatSVG), WithDetails: true}
	if saved, err := LoadWizardConfig(); err == nil && saved != nil && saved.Validate() == nil {
		cfg = *saved
	}
	return &Wizard{config: cfg}
}

// Run shows the form and returns the answers. They are saved on success.
func (w *Wizard) Run() (WizardConfig, error) {
	format := w.config.Format
	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("내보내기 형식").
				Options(
					huh.NewOption("SVG 이미지", FormatSVG),
					huh.NewOption("PNG 이미지", FormatPNG),
					huh.NewOption("HTML (확대/이동 가능)", FormatHTML),
					huh.NewOption("SQLite 스냅샷 (오프라인용)", FormatSQLite),
				).
				Value(&format),
		),
	)
	if err := form.Run(); err != nil {
		return WizardConfig{}, err
	}
	if format != w.config.Format {
		w.config.OutputPath = DefaultOutputPath(format)
	}
	w.config.Format = format

	fields := []huh.Field{
		huh.NewInput().
			Title("저장 경로").
			Value(&w.config.OutputPath).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("경로를 입력하세요")
				}
				return nil
			}),
	}
	if format == FormatSQLite {
		fields = append(fields, huh.NewConfirm().
			Title("자격증 상세 정보도 저장할까요?").
			Description("노드마다 상세 정보를 요청합니다").
			Value(&w.config.WithDetails))
	} else {
		fields = append(fields, huh.NewInput().
			Title("제목 (선택)").
			Placeholder("기술 트리").
			Value(&w.config.Title))
	}
	if err := newForm(huh.NewGroup(fields...)).Run(); err != nil {
		return WizardConfig{}, err
	}

	if err := w.config.Validate(); err != nil {
		return WizardConfig{}, err
	}
	if err := SaveWizardConfig(&w.config); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save wizard answers: %v\n", err)
	}
	return w.config, nil
}

// PickCategory asks for a category before the viewer starts.
func PickCategory(categories []datasource.Category, current string) (string, error) {
	if len(categories) == 0 {
		categories = datasource.DefaultCategories()
	}
	options := make([]huh.Option[string], 0, len(categories))
	for _, c := range categories {
		options = append(options, huh.NewOption(c.Label, c.Value))
	}
	value := current
	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("카테고리를 선택하세요").
				Options(options...).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return current, err
	}
	return value, nil
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	return filepath.Join(config.ConfigDir(), "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration.
func LoadWizardConfig() (*WizardConfig, error) {
	return LoadWizardConfigFrom(WizardConfigPath())
}

// LoadWizardConfigFrom reads answers from path. A missing file is (nil, nil).
func LoadWizardConfigFrom(path string) (*WizardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg WizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(cfg *WizardConfig) error {
	return SaveWizardConfigTo(cfg, WizardConfigPath())
}

// SaveWizardConfigTo writes answers to path.
func SaveWizardConfigTo(cfg *WizardConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
