package flow

import (
	"context"
	"path/filepath"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"flowbook/common"
	"flowbook/state"
)

func TestBuildOutputPath(t *testing.T) {
	src := filepath.Join(string(filepath.Separator)+"books", "Holiday.blurb")
	vals := Values{Name: "Holiday", Pages: 2, Images: 7, Date: "2024-05-06"}

	tests := []struct {
		name          string
		template      string
		transliterate bool
		vals          Values
		want          string
	}{
		{
			name: "default",
			vals: vals,
			want: filepath.Join(string(filepath.Separator)+"books", "Holiday-flow.blurb"),
		},
		{
			name:     "template with directory",
			template: "{{ .Name }}/{{ .Pages }} pages",
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "Holiday", "2 pages.blurb"),
		},
		{
			name:     "template keeps extension once",
			template: "{{ .Date }}-{{ .Images }}.blurb",
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "2024-05-06-7.blurb"),
		},
		{
			name:     "sprig functions",
			template: `{{ .Name | upper }}`,
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "HOLIDAY.blurb"),
		},
		{
			name:          "transliterated",
			transliterate: true,
			vals:          Values{Name: "Отпуск"},
			want:          filepath.Join(string(filepath.Separator)+"books", "otpusk-flow.blurb"),
		},
		{
			name:     "bad template",
			template: "{{ .Name ",
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "Holiday-flow.blurb"),
		},
		{
			name:     "failing template",
			template: "{{ .Unknown }}",
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "Holiday-flow.blurb"),
		},
		{
			name:     "empty expansion",
			template: `{{ "" }}`,
			vals:     vals,
			want:     filepath.Join(string(filepath.Separator)+"books", "Holiday-flow.blurb"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, env := setupTestEnv(t)
			env.Cfg.Book.OutputNameTemplate = tt.template
			env.Cfg.Book.FileNameTransliterate = tt.transliterate

			if got := buildOutputPath(src, tt.vals, env); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	got := splitPath(filepath.Join("a", "b", "c") + string(filepath.Separator))
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitPath() = %v", got)
	}
	if got := splitPath(""); len(got) != 0 {
		t.Errorf("splitPath(\"\") = %v", got)
	}
}

// runOverrides parses args with layout flags and applies them to fresh
// configuration.
func runOverrides(t *testing.T, args ...string) (*state.LocalEnv, error) {
	t.Helper()

	ctx, env := setupTestEnv(t)
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "image-height"},
			&cli.StringFlag{Name: "ordering"},
			&cli.StringFlag{Name: "sort"},
			&cli.StringFlag{Name: "exif-key"},
			&cli.BoolFlag{Name: "reverse"},
			&cli.Uint64Flag{Name: "seed"},
			&cli.BoolFlag{Name: "mirror"},
			&cli.BoolFlag{Name: "double"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return applyOverrides(cmd, env.Cfg, env.Log)
		},
	}
	return env, cmd.Run(ctx, append([]string{"test"}, args...))
}

func TestApplyOverrides(t *testing.T) {
	env, err := runOverrides(t, "--image-height", "150", "--seed", "7", "--double", "--ordering", "smart", "--exif-key", "DateTime", "--reverse")
	if err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}
	l := env.Cfg.Layout
	if l.ImageHeight != 150 || l.Seed != 7 || !l.DoubleSpreads || l.Ordering != common.OrderingModeSmart {
		t.Errorf("layout overrides were not applied: %+v", l)
	}
	c := env.Cfg.Catalog
	if c.Sort != common.SortFieldExif || c.ExifKey != "DateTime" || !c.Reverse {
		t.Errorf("catalog overrides were not applied: %+v", c)
	}

	env, err = runOverrides(t, "--sort", "name", "--exif-key", "Rating")
	if err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}
	if env.Cfg.Catalog.Sort != common.SortFieldName {
		t.Errorf("explicit sort was replaced: %v", env.Cfg.Catalog.Sort)
	}
}

func TestApplyOverrides_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"--ordering", "random"},
		{"--sort", "color"},
		{"--sort", "exif"},
	} {
		if _, err := runOverrides(t, args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestCodePage(t *testing.T) {
	log := zaptest.NewLogger(t)
	if enc := codePage("", log); enc != nil {
		t.Error("expected no encoding for empty name")
	}
	if enc := codePage("windows-1251", log); enc == nil {
		t.Error("expected encoding for windows-1251")
	}
	if enc := codePage("no-such-charset", log); enc != nil {
		t.Error("expected no encoding for unknown name")
	}
}
