package blocklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
)

func TestBlocklist(t *testing.T) {
	var testBlocklist = Blocklist{
		CaseSensitive: map[string]bool{
			"caseSensitive": true,
		},
		CaseInsensitive: map[string]bool{
			"caseinsensitive": true,
		},
	}

	assert.False(t, testBlocklist.Allowed("caseInsensitive"))
	assert.False(t, testBlocklist.Allowed("CASEINSENSITIVE"))

	assert.False(t, testBlocklist.Allowed("caseSensitive"))
	assert.True(t, testBlocklist.Allowed("CASESENSITIVE"))

	assert.True(t, testBlocklist.Allowed("non-blocklisted-term"))
}

func TestFilterRecords(t *testing.T) {
	bl := Blocklist{
		CaseInsensitive: map[string]bool{"cell": true},
		EntityKeys:      map[string]bool{"GENE$CAT": true},
	}
	records := []annotation.Record{
		{EntityType: "HUCELL", HitID: "CL1", Name: "Cell"},
		{EntityType: "GENE", HitID: "CAT", Name: "catalase"},
		{EntityType: "GENE", HitID: "CSF1", Name: "CSF1"},
		{EntityType: "DRUG", HitID: "CAT", Name: "cat"},
	}

	filtered := bl.FilterRecords(records)
	require.Len(t, filtered, 2)
	assert.Equal(t, "GENE$CSF1", filtered[0].Key())
	assert.Equal(t, "DRUG$CAT", filtered[1].Key())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
case_sensitive:
  - AIM
case_insensitive:
  - Protein
entity_keys:
  - GENE$CAT
`), 0600))

	bl, err := Load(path)
	require.NoError(t, err)
	assert.False(t, bl.Allowed("AIM"))
	assert.True(t, bl.Allowed("aim"))
	assert.False(t, bl.Allowed("PROTEIN"))
	assert.False(t, bl.AllowedRecord(annotation.Record{EntityType: "GENE", HitID: "CAT"}))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
