package main

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivexml/internal/format"
	"github.com/joshuapare/hivexml/internal/testutil"
)

func forgeHiveFile(t *testing.T, dir string) string {
	t.Helper()
	root := &testutil.Key{
		Name:   "Root",
		Values: []*testutil.Value{{Name: "V", Type: format.RegDword, Data: []byte{1, 0, 0, 0}}},
	}
	built := testutil.Build(root, 0)
	path := filepath.Join(dir, "test.hive")
	require.NoError(t, os.WriteFile(path, built.Image, 0o644))
	return path
}

func TestRunWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	hivePath := forgeHiveFile(t, dir)

	outputPath = filepath.Join(dir, "out.xml")
	defer func() { outputPath = "" }()

	require.NoError(t, run(hivePath))

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	var doc struct {
		XMLName xml.Name `xml:"hive"`
	}
	require.NoError(t, xml.Unmarshal(raw, &doc))
}

func TestRunOutputCreateFailure(t *testing.T) {
	dir := t.TempDir()
	hivePath := forgeHiveFile(t, dir)

	outputPath = filepath.Join(dir, "missing", "out.xml")
	defer func() { outputPath = "" }()

	require.Error(t, run(hivePath))
}
