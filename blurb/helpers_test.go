package blurb

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testBook = `<?xml version="1.0" encoding="UTF-8"?>
<book width="612" height="792" version="2">
  <section type="cover">
    <page number="-1" spread="false"/>
  </section>
  <section type="body">
    <page number="1" spread="false">
      <container x="28" y="28" width="100" height="100" type="image" transform="1 0 0 1" id="c-used">
        <image scale="0.5" x="0" y="0" autolayout="fill" flip="none" src="used-1.jpg"/>
      </container>
    </page>
    <page number="2" spread="false"/>
    <page number="3" spread="false"/>
    <page number="4" spread="false"/>
    <page number="5" spread="false">
      <container x="28" y="28" width="300" height="100" type="text" id="c-text"/>
    </page>
  </section>
  <textflows>
    <textflow src="flow-1"><container-id>c-text</container-id></textflow>
  </textflows>
</book>
`

const testRegistry = `<?xml version="1.0" encoding="UTF-8"?>
<medialist>
  <images>
    <media src="/photos/used.jpg" validated="true" width="200" height="200" guid="used-1" modified="2020-05-06T07:08:09" ext="jpg" group=""/>
    <media src="/photos/wide.png" validated="true" width="400" height="200" guid="free-1" modified="2021-01-02T03:04:05.500000" ext="png" group=""/>
    <media src="/photos/tall.jpg" validated="true" width="200" height="300" guid="free-2" modified="2019-01-01T00:00:00" ext="jpg" group=""/>
  </images>
  <video/>
  <audio/>
  <text>
    <media guid="flow-1" src="flow-1.xml"/>
  </text>
</medialist>
`

// writeProject creates extracted project with book and registry, files are
// created empty under given relative names.
func writeProject(t *testing.T, book, registry string, files ...string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BookFile), []byte(book), 0644); err != nil {
		t.Fatal(err)
	}
	if len(registry) > 0 {
		if err := os.WriteFile(filepath.Join(dir, RegistryFile), []byte(registry), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readFile(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// pageNumbers returns numbers of all body pages in document order.
func pageNumbers(t *testing.T, b *Book) []string {
	t.Helper()

	var out []string
	for _, p := range b.pages() {
		out = append(out, p.SelectAttrValue("number", ""))
	}
	return out
}

func joined(s []string) string {
	return strings.Join(s, ",")
}
