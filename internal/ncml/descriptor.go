// Package ncml parses NCML join-existing aggregation descriptors and
// drives reads across the member files they describe.
package ncml

import (
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/met-norway/dars/internal/daperr"
)

// Scan describes a <scan> element: every file under Location whose name
// ends in Suffix and does not contain Ignore as a substring is a member,
// except hidden (dot-prefixed) files, which are always skipped.
type Scan struct {
	Location string
	Suffix   string
	Ignore   string
}

// Descriptor is a parsed NCML join-existing aggregation: the dimension
// along which members are joined, explicit member locations, and scan
// directives, in document order (explicit <netcdf> children are
// resolved before <scan> directives, mirroring the original's
// traversal).
type Descriptor struct {
	Path     string // the NCML file's own path
	DimName  string
	Explicit []string // resolved absolute paths from explicit <netcdf location=...>
	Scans    []Scan
}

// ParseFile reads and parses an NCML document at path. Relative
// location attributes (on both <netcdf> and <scan>) resolve against
// path's parent directory.
func ParseFile(path string) (*Descriptor, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, daperr.Wrap(daperr.AggregationMisconfigured, "parse ncml: "+path, err)
	}

	root := doc.SelectElement("netcdf")
	if root == nil {
		return nil, daperr.New(daperr.AggregationMisconfigured, "missing <netcdf> root: "+path)
	}
	agg := root.SelectElement("aggregation")
	if agg == nil {
		return nil, daperr.New(daperr.AggregationMisconfigured, "missing <aggregation>: "+path)
	}
	if kind := agg.SelectAttrValue("type", ""); kind != "joinExisting" {
		return nil, daperr.New(daperr.AggregationMisconfigured, "unsupported aggregation type: "+kind)
	}
	dimName := agg.SelectAttrValue("dimName", "")
	if dimName == "" {
		return nil, daperr.New(daperr.AggregationMisconfigured, "missing dimName attribute: "+path)
	}

	dir := filepath.Dir(path)
	desc := &Descriptor{Path: path, DimName: dimName}

	for _, el := range agg.SelectElements("netcdf") {
		loc := el.SelectAttrValue("location", "")
		if loc == "" {
			continue
		}
		desc.Explicit = append(desc.Explicit, resolve(dir, loc))
	}

	for _, el := range agg.SelectElements("scan") {
		loc := el.SelectAttrValue("location", "")
		if loc == "" {
			continue
		}
		desc.Scans = append(desc.Scans, Scan{
			Location: resolve(dir, loc),
			Suffix:   el.SelectAttrValue("suffix", ""),
			Ignore:   el.SelectAttrValue("ignore", ""),
		})
	}

	return desc, nil
}

// resolve joins loc against dir unless loc is already absolute.
func resolve(dir, loc string) string {
	if filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(dir, loc)
}
