package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"flowbook/common"
	"flowbook/layout"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MarginsConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		// negative value selects default depending on mirroring
		Left  float64 `yaml:"left" validate:"gte=-1"`
		Right float64 `yaml:"right" validate:"gte=0"`
	}

	LayoutConfig struct {
		// zero page size is read from the book
		PageWidth         float64             `yaml:"page_width" validate:"gte=0"`
		PageHeight        float64             `yaml:"page_height" validate:"gte=0"`
		Margins           MarginsConfig       `yaml:"margins"`
		SpacingX          float64             `yaml:"spacing_x" validate:"gte=0"`
		SpacingY          float64             `yaml:"spacing_y" validate:"gte=0"`
		ImageHeight       float64             `yaml:"image_height" validate:"gt=0"`
		Mirror            bool                `yaml:"mirror"`
		CenterHorizontal  bool                `yaml:"center_horizontal"`
		CenterVertical    bool                `yaml:"center_vertical"`
		SpreadHorizontal  bool                `yaml:"spread_horizontal"`
		SpreadVertical    bool                `yaml:"spread_vertical"`
		ScaleRowToFill    bool                `yaml:"scale_to_fill"`
		DoubleSpreads     bool                `yaml:"double_spreads"`
		DoubleSpreadsOnly bool                `yaml:"double_spreads_only"`
		Overfill          bool                `yaml:"overfill"`
		OddPagesOnly      bool                `yaml:"odd_pages_only"`
		EvenPagesOnly     bool                `yaml:"even_pages_only" validate:"excluded_if=OddPagesOnly true"`
		MixedAspect       bool                `yaml:"mixed_aspect"`
		Ordering          common.OrderingMode `yaml:"ordering" validate:"gte=0"`
		Seed              uint64              `yaml:"seed"`
		PanoramicAspect   float64             `yaml:"panoramic_aspect" validate:"gt=1"`
		AspectDeviation   float64             `yaml:"aspect_deviation" validate:"gte=0"`
		FillGenerosity    float64             `yaml:"fill_generosity" validate:"gte=1"`
	}

	OptimizerConfig struct {
		CoarseStep       float64 `yaml:"coarse_step" validate:"gt=0,lt=1"`
		FineStep         float64 `yaml:"fine_step" validate:"gt=0"`
		CoarseIterations int     `yaml:"coarse_iterations" validate:"min=1"`
		FineIterations   int     `yaml:"fine_iterations" validate:"min=1"`
		SeedAttempts     int     `yaml:"seed_attempts" validate:"min=1"`
	}

	CatalogConfig struct {
		Sort    common.SortField `yaml:"sort" validate:"gte=0"`
		Reverse bool             `yaml:"reverse"`
		// EXIF tag name used with exif sort
		ExifKey string `yaml:"exif_key" validate:"required_if=Sort 5"`
	}

	BookConfig struct {
		Backup                bool   `yaml:"backup"`
		ThumbnailSize         int    `yaml:"thumbnail_size" validate:"min=64,max=4096"`
		ThumbnailQuality      int    `yaml:"thumbnail_quality" validate:"min=40,max=100"`
		OutputNameTemplate    string `yaml:"output_name_template"`
		FileNameTransliterate bool   `yaml:"file_name_transliterate"`
	}

	PreviewConfig struct {
		Width      int                 `yaml:"width" validate:"min=100"`
		Filter     common.ResizeFilter `yaml:"filter" validate:"gte=0"`
		Background string              `yaml:"background" validate:"hexcolor"`
		Outline    bool                `yaml:"outline"`
		Workers    int                 `yaml:"workers" validate:"gte=0"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Layout    LayoutConfig    `yaml:"layout"`
		Optimizer OptimizerConfig `yaml:"optimizer"`
		Catalog   CatalogConfig   `yaml:"catalog"`
		Book      BookConfig      `yaml:"book"`
		Preview   PreviewConfig   `yaml:"preview"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// Options converts layout configuration into engine options for a page of
// given size. Configured page size takes precedence.
func (conf *Config) Options(pageWidth, pageHeight float64) layout.Options {
	l := &conf.Layout

	opts := layout.DefaultOptions()
	opts.PageWidth, opts.PageHeight = pageWidth, pageHeight
	if l.PageWidth > 0 {
		opts.PageWidth = l.PageWidth
	}
	if l.PageHeight > 0 {
		opts.PageHeight = l.PageHeight
	}
	opts.Margins = layout.Margins{Top: l.Margins.Top, Bottom: l.Margins.Bottom, Left: l.Margins.Left, Right: l.Margins.Right}
	if opts.Margins.Left < 0 {
		opts.Margins.Left = 28
		if l.Mirror {
			opts.Margins.Left = 42
		}
	}
	opts.SpacingX, opts.SpacingY = l.SpacingX, l.SpacingY
	opts.TargetHeight = l.ImageHeight

	opts.Mirror = l.Mirror
	opts.CenterHorizontal, opts.CenterVertical = l.CenterHorizontal, l.CenterVertical
	opts.SpreadHorizontal, opts.SpreadVertical = l.SpreadHorizontal, l.SpreadVertical
	opts.ScaleRowToFill = l.ScaleRowToFill
	opts.AllowDoubleSpreads, opts.DoubleSpreadsOnly = l.DoubleSpreads, l.DoubleSpreadsOnly
	opts.Overfill = l.Overfill
	opts.OddPagesOnly, opts.EvenPagesOnly = l.OddPagesOnly, l.EvenPagesOnly
	opts.AllowMixedAspect = l.MixedAspect

	opts.PanoramicAspect = l.PanoramicAspect
	opts.AspectDeviation = l.AspectDeviation
	opts.FillGenerosity = l.FillGenerosity

	opts.Ordering, opts.Seed = l.Ordering, l.Seed
	opts.SortField, opts.Reverse = conf.Catalog.Sort, conf.Catalog.Reverse
	return opts
}

// SolveOptions returns optimizer search parameters.
func (conf *OptimizerConfig) SolveOptions() layout.SolveOptions {
	return layout.SolveOptions{
		CoarseStep:       conf.CoarseStep,
		FineStep:         conf.FineStep,
		CoarseIterations: conf.CoarseIterations,
		FineIterations:   conf.FineIterations,
		SeedAttempts:     conf.SeedAttempts,
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
