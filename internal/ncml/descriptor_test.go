package ncml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeNcml(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "agg.ncml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseFile_ExplicitMembers(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?>
<netcdf>
  <aggregation type="joinExisting" dimName="time">
    <netcdf location="a.nc"/>
    <netcdf location="b.nc"/>
  </aggregation>
</netcdf>`)

	desc, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, "time", desc.DimName)
	require.Equal(t, []string{filepath.Join(dir, "a.nc"), filepath.Join(dir, "b.nc")}, desc.Explicit)
}

func TestParseFile_ScanDirective(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?>
<netcdf>
  <aggregation type="joinExisting" dimName="time">
    <scan location="members" suffix=".nc" ignore="tmp"/>
  </aggregation>
</netcdf>`)

	desc, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, desc.Scans, 1)
	require.Equal(t, filepath.Join(dir, "members"), desc.Scans[0].Location)
	require.Equal(t, ".nc", desc.Scans[0].Suffix)
	require.Equal(t, "tmp", desc.Scans[0].Ignore)
}

func TestParseFile_AbsoluteLocationNotRejoined(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "members")
	path := writeNcml(t, dir, `<?xml version="1.0"?>
<netcdf>
  <aggregation type="joinExisting" dimName="time">
    <scan location="`+abs+`"/>
  </aggregation>
</netcdf>`)

	desc, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, abs, desc.Scans[0].Location)
}

func TestParseFile_MissingNetcdfRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?><foo/>`)
	_, err := ParseFile(path)
	require.Error(t, err)
}

func TestParseFile_MissingAggregation(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?><netcdf></netcdf>`)
	_, err := ParseFile(path)
	require.Error(t, err)
}

func TestParseFile_UnsupportedAggregationType(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?>
<netcdf><aggregation type="union" dimName="time"/></netcdf>`)
	_, err := ParseFile(path)
	require.Error(t, err)
}

func TestParseFile_MissingDimName(t *testing.T) {
	dir := t.TempDir()
	path := writeNcml(t, dir, `<?xml version="1.0"?>
<netcdf><aggregation type="joinExisting"/></netcdf>`)
	_, err := ParseFile(path)
	require.Error(t, err)
}
