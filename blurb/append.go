package blurb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEvenStart is returned when appended book would start on a left page.
var ErrEvenStart = errors.New("appended pages must start with odd page number")

// copied project directories, names are guids with extension
var appendDirs = []string{ImagesDir, ThumbnailsDir, "thumbnails_small", "textflows"}

// AppendStats summarizes append operation.
type AppendStats struct {
	Files     int
	Pages     int
	Flows     int
	Media     int
	Remapped  int
	FirstPage int
}

// Append adds all pages of project in srcDir to the end of project in
// dstDir. Files are copied next to existing ones, colliding guids are
// replaced with new ones and all references are updated accordingly.
func Append(dstDir, srcDir string, log *zap.Logger) (stats AppendStats, err error) {
	dst, err := LoadBook(dstDir)
	if err != nil {
		return stats, err
	}
	dstReg, err := LoadRegistry(dstDir)
	if err != nil {
		return stats, err
	}
	src, err := LoadBook(srcDir)
	if err != nil {
		return stats, err
	}
	srcReg, err := LoadRegistry(srcDir)
	if err != nil {
		return stats, err
	}

	last, err := dst.LastPage()
	if err != nil {
		return stats, err
	}
	stats.FirstPage = last + 1
	if stats.FirstPage%2 == 0 {
		return stats, fmt.Errorf("%w: next page is %d", ErrEvenStart, stats.FirstPage)
	}

	guids := make(map[string]string)
	for _, dir := range appendDirs {
		n, err := copyReguid(filepath.Join(srcDir, dir), filepath.Join(dstDir, dir), guids, log)
		if err != nil {
			return stats, err
		}
		stats.Files += n
	}

	if stats.Flows, err = appendFlows(dst, src, guids, log); err != nil {
		return stats, err
	}
	if stats.Pages, err = appendPages(dst, src, stats.FirstPage, guids, log); err != nil {
		return stats, err
	}
	for _, section := range []string{"images", "text"} {
		entries := srcReg.media(section)
		remapGUIDs(entries, guids)
		appendElements(dstReg.section(section), "media", entries)
		stats.Media += len(entries)
	}
	stats.Remapped = len(guids)

	if err := dst.Save(); err != nil {
		return stats, err
	}
	return stats, dstReg.Save()
}

// copyReguid copies files from srcDir into dstDir. File name is guid with
// extension; when destination already exists file gets new guid and mapping
// is recorded so all files of the same media follow it.
func copyReguid(srcDir, dstDir string, guids map[string]string, log *zap.Logger) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		old := strings.TrimSuffix(name, ext)

		target := filepath.Join(dstDir, name)
		if g, ok := guids[old]; ok {
			target = filepath.Join(dstDir, g+ext)
		} else if _, err := os.Stat(target); err == nil {
			for {
				g := uuid.NewString()
				target = filepath.Join(dstDir, g+ext)
				if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
					guids[old] = g
					log.Debug("Remapping guid", zap.String("file", name), zap.String("guid", g))
					break
				}
			}
		}

		info, err := e.Info()
		if err != nil {
			return count, err
		}
		data, err := os.ReadFile(filepath.Join(srcDir, name))
		if err != nil {
			return count, err
		}
		if err := writeFile(target, data, info.ModTime()); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// appendFlows copies text flows after the last flow of the book. Container
// references inside flows get fresh ids.
func appendFlows(dst, src *Book, guids map[string]string, log *zap.Logger) (int, error) {
	flows := src.doc.FindElements(".//textflow")
	if len(flows) == 0 {
		return 0, nil
	}
	for _, flow := range flows {
		if g, ok := guids[flow.SelectAttrValue("src", "")]; ok {
			flow.CreateAttr("src", g)
		}
		for _, ref := range flow.FindElements(".//container-id") {
			g := uuid.NewString()
			guids[strings.TrimSpace(ref.Text())] = g
			ref.SetText(g)
		}
	}

	log.Debug("Appending text flows", zap.Int("count", len(flows)))
	if existing := dst.doc.FindElements(".//textflow"); len(existing) > 0 {
		insertAfter(existing[len(existing)-1], flows)
		return len(flows), nil
	}
	holder := dst.doc.Root()
	if parent := flows[0].Parent(); parent != nil && parent != src.doc.Root() {
		if holder = dst.doc.FindElement(".//" + parent.Tag); holder == nil {
			return 0, fmt.Errorf("book has no <%s> element to hold text flows", parent.Tag)
		}
	}
	appendElements(holder, "", flows)
	return len(flows), nil
}

// appendPages copies numbered pages renumbering them from first.
func appendPages(dst, src *Book, first int, guids map[string]string, log *zap.Logger) (int, error) {
	pages := dst.doc.FindElements(".//page")
	if len(pages) == 0 {
		return 0, errors.New("book has no pages")
	}
	anchor := pages[len(pages)-1]

	var moved []*etree.Element
	next := first
	for _, page := range src.doc.FindElements(".//page") {
		n, err := pageNumber(page)
		if err != nil {
			return 0, err
		}
		if n == -1 {
			// cover
			continue
		}
		for _, c := range page.FindElements(".//container") {
			if g, ok := guids[c.SelectAttrValue("id", "")]; ok {
				c.CreateAttr("id", g)
			}
		}
		for _, img := range page.FindElements(".//image") {
			name := img.SelectAttrValue("src", "")
			ext := filepath.Ext(name)
			if g, ok := guids[strings.TrimSuffix(name, ext)]; ok {
				img.CreateAttr("src", g+ext)
			}
		}
		page.CreateAttr("number", strconv.Itoa(next))
		next++
		moved = append(moved, page)
	}
	log.Debug("Appending pages", zap.Int("first", first), zap.Int("count", len(moved)))
	insertAfter(anchor, moved)
	return len(moved), nil
}

// insertAfter moves elements (in order) right after anchor.
func insertAfter(anchor *etree.Element, elements []*etree.Element) {
	parent := anchor.Parent()
	at := anchor.Index() + 1
	for _, el := range elements {
		if p := el.Parent(); p != nil {
			p.RemoveChild(el)
		}
		parent.InsertChildAt(at, el)
		at++
	}
}

// appendElements moves elements to the end of parent, after last child with
// tag when given.
func appendElements(parent *etree.Element, tag string, elements []*etree.Element) {
	if len(tag) > 0 {
		if existing := parent.SelectElements(tag); len(existing) > 0 {
			insertAfter(existing[len(existing)-1], elements)
			return
		}
	}
	for _, el := range elements {
		if p := el.Parent(); p != nil {
			p.RemoveChild(el)
		}
		parent.AddChild(el)
	}
}
