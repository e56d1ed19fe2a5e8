package flow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"flowbook/config"
	"flowbook/state"
)

const (
	bookExt       = ".blurb"
	defaultSuffix = "-flow"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// Name is source book file name without extension.
	Name   string
	Pages  int
	Images int
	Date   string
}

// buildOutputPath returns name of the merged book placed next to the source
// book. When template is not configured or fails to expand name is derived
// from the source name. Path segments are cleaned and if requested
// transliterated.
func buildOutputPath(src string, vals Values, env *state.LocalEnv) string {
	outDir := filepath.Dir(src)
	defaultFile := cleanPathSegment(vals.Name+defaultSuffix, env) + bookExt

	if env.Cfg.Book.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expanded, err := expandTemplate(config.OutputNameTemplateFieldName, env.Cfg.Book.OutputNameTemplate, vals)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}
	segments := splitPath(filepath.FromSlash(expanded))
	if len(segments) == 0 {
		return filepath.Join(outDir, defaultFile)
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, s := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(s, env))
	}
	name := strings.TrimSuffix(segments[len(segments)-1], bookExt)
	parts = append(parts, cleanPathSegment(name, env)+bookExt)
	return filepath.Join(parts...)
}

func expandTemplate(name config.TemplateFieldName, field string, vals Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}
	vals.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, vals); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func splitPath(path string) []string {
	segments := make([]string, 0, 8)
	for head, tail := filepath.Split(strings.TrimSuffix(path, string(os.PathSeparator))); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Book.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
