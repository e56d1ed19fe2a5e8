package blurb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/multierr"

	"flowbook/layout"
)

const (
	ImagesDir     = "images"
	ThumbnailsDir = "thumbnails"

	modifiedLayout      = "2006-01-02T15:04:05"
	modifiedLayoutMicro = "2006-01-02T15:04:05.000000"
)

// Media is an image entry of media registry.
type Media struct {
	GUID      string
	Src       string
	Ext       string
	Width     int
	Height    int
	Modified  time.Time
	Group     string
	Validated bool
}

// FileName returns name of the media file in project images directory.
func (m *Media) FileName() string {
	if len(m.Ext) == 0 {
		return m.GUID
	}
	return m.GUID + "." + m.Ext
}

// Image converts media entry to layout engine descriptor.
func (m *Media) Image() *layout.Image {
	return &layout.Image{
		ID:       m.GUID,
		Source:   m.Src,
		Width:    m.Width,
		Height:   m.Height,
		Modified: m.Modified,
	}
}

// Registry is project media registry.
type Registry struct {
	dir     string
	doc     *etree.Document
	changed bool
}

// LoadRegistry reads media registry of the project, new empty registry is
// prepared when project does not have one yet.
func LoadRegistry(dir string) (*Registry, error) {
	path := filepath.Join(dir, RegistryFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		doc := newDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		root := doc.CreateElement("medialist")
		for _, name := range []string{"images", "video", "audio", "text"} {
			root.CreateElement(name)
		}
		return &Registry{dir: dir, doc: doc, changed: true}, nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read media registry: %w", err)
	}
	return &Registry{dir: dir, doc: doc}, nil
}

// Changed reports whether registry has to be saved.
func (r *Registry) Changed() bool {
	return r.changed
}

// Save writes registry to the project directory.
func (r *Registry) Save() error {
	if err := writeDocument(r.doc, filepath.Join(r.dir, RegistryFile)); err != nil {
		return fmt.Errorf("unable to write media registry: %w", err)
	}
	r.changed = false
	return nil
}

func (r *Registry) section(name string) *etree.Element {
	root := r.doc.Root()
	if el := root.SelectElement(name); el != nil {
		return el
	}
	r.changed = true
	return root.CreateElement(name)
}

// media returns entries of registry section, queries are relative to the
// medialist root element.
func (r *Registry) media(section string) []*etree.Element {
	return r.doc.Root().FindElements("./" + section + "/media")
}

// Images returns all image entries in registry order. Entries with broken
// attributes are reported as errors.
func (r *Registry) Images() ([]Media, error) {
	var (
		out  []Media
		errs error
	)
	for _, el := range r.media("images") {
		m, err := parseMedia(el)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errs
}

func parseMedia(el *etree.Element) (Media, error) {
	m := Media{
		GUID:      el.SelectAttrValue("guid", ""),
		Src:       el.SelectAttrValue("src", ""),
		Ext:       el.SelectAttrValue("ext", ""),
		Group:     el.SelectAttrValue("group", ""),
		Validated: el.SelectAttrValue("validated", "") == "true",
	}
	if len(m.GUID) == 0 {
		return m, fmt.Errorf("media entry %q has no guid", m.Src)
	}
	var err error
	if m.Width, err = strconv.Atoi(el.SelectAttrValue("width", "")); err != nil {
		return m, fmt.Errorf("media entry %s has bad width: %w", m.GUID, err)
	}
	if m.Height, err = strconv.Atoi(el.SelectAttrValue("height", "")); err != nil {
		return m, fmt.Errorf("media entry %s has bad height: %w", m.GUID, err)
	}
	if s := el.SelectAttrValue("modified", ""); len(s) > 0 {
		// unparsable dates sort first
		m.Modified, _ = time.ParseInLocation(modifiedLayout, s, time.Local)
	}
	return m, nil
}

// Has reports whether image with source path src is already registered.
func (r *Registry) Has(src string) bool {
	for _, el := range r.media("images") {
		if el.SelectAttrValue("src", "") == src {
			return true
		}
	}
	return false
}

// Add appends image entry to the registry.
func (r *Registry) Add(m Media) {
	el := r.section("images").CreateElement("media")
	el.CreateAttr("src", m.Src)
	el.CreateAttr("validated", strconv.FormatBool(m.Validated))
	el.CreateAttr("width", strconv.Itoa(m.Width))
	el.CreateAttr("height", strconv.Itoa(m.Height))
	el.CreateAttr("guid", m.GUID)
	el.CreateAttr("modified", formatModified(m.Modified))
	el.CreateAttr("ext", m.Ext)
	el.CreateAttr("group", m.Group)
	r.changed = true
}

func formatModified(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(modifiedLayout)
	}
	return t.Format(modifiedLayoutMicro)
}

// Files maps image guids to file names in project images directory.
func (r *Registry) Files() map[string]string {
	files := make(map[string]string)
	for _, el := range r.media("images") {
		m := Media{GUID: el.SelectAttrValue("guid", ""), Ext: el.SelectAttrValue("ext", "")}
		files[m.GUID] = m.FileName()
	}
	return files
}

// Unused returns registered images not referenced by the book.
func (r *Registry) Unused(used map[string]bool) ([]*layout.Image, error) {
	all, err := r.Images()
	images := make([]*layout.Image, 0, len(all))
	for i := range all {
		if used[all[i].GUID] {
			continue
		}
		images = append(images, all[i].Image())
	}
	return images, err
}

// remapGUIDs rewrites guid attributes of entries in section according to
// mapping.
func remapGUIDs(entries []*etree.Element, mapping map[string]string) {
	for _, el := range entries {
		if g, ok := mapping[el.SelectAttrValue("guid", "")]; ok {
			el.CreateAttr("guid", g)
		}
	}
}
