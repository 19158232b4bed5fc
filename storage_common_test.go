package main

import (
	"encoding/json"
	"sort"
	"testing"
)

func entrySetEqual(a, b []CatalogEntry) bool {
	if len(a) != len(b) {
		return false
	}
	filenames := func(s []CatalogEntry) []string {
		retval := make([]string, 0, len(s))
		for _, e := range s {
			retval = append(retval, e.Filename+"|"+e.Checksum)
		}
		sort.Strings(retval)
		return retval
	}
	aNames := filenames(a)
	bNames := filenames(b)
	for i := range aNames {
		if aNames[i] != bNames[i] {
			return false
		}
	}
	return true
}

func TestCommonReconcile_AllNew(t *testing.T) {
	wanted := []CatalogEntry{
		testEntry("nginx", "1.18.0", "", "linux", "x86_64"),
		testEntry("nginx", "1.19.5", "", "linux", "x86_64"),
	}

	result := commonReconcileWantedEntries(nil, nil, wanted)
	if !entrySetEqual(result, wanted) {
		t.Errorf("expected all wanted returned, got %v", result)
	}
}

func TestCommonReconcile_AllValid(t *testing.T) {
	entry := testEntry("nginx", "1.18.0", "", "linux", "x86_64")
	valid := []StoredArtifact{{CatalogEntry: entry}}

	result := commonReconcileWantedEntries(valid, nil, []CatalogEntry{entry})
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
}

func TestCommonReconcile_InvalidCausesRedownload(t *testing.T) {
	entry := testEntry("nginx", "1.18.0", "", "linux", "x86_64")
	invalid := []StoredArtifact{{CatalogEntry: entry}}

	result := commonReconcileWantedEntries(nil, invalid, nil)
	if len(result) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result))
	}
	if result[0].Filename != entry.Filename {
		t.Errorf("expected %s, got %s", entry.Filename, result[0].Filename)
	}
}

func TestCommonReconcile_ChangedChecksumCausesRedownload(t *testing.T) {
	entry := testEntry("nginx", "1.18.0", "", "linux", "x86_64")
	stored := entry
	stored.Checksum = "sha256:" + sha256Hex([]byte("previous build"))
	valid := []StoredArtifact{{CatalogEntry: stored}}

	result := commonReconcileWantedEntries(valid, nil, []CatalogEntry{entry})
	if len(result) != 1 || result[0].Checksum != entry.Checksum {
		t.Errorf("expected the republished entry to be fetched, got %v", result)
	}
}

func TestCommonReconcile_MixedState(t *testing.T) {
	entryValid := testEntry("nginx", "1.18.0", "", "linux", "x86_64")
	entryInvalid := testEntry("nginx", "1.19.5", "", "linux", "x86_64")
	entryNew := testEntry("nginx", "1.20.0", "", "linux", "x86_64")

	valid := []StoredArtifact{{CatalogEntry: entryValid}}
	invalid := []StoredArtifact{{CatalogEntry: entryInvalid}}
	wanted := []CatalogEntry{entryValid, entryInvalid, entryNew}

	result := commonReconcileWantedEntries(valid, invalid, wanted)
	expected := []CatalogEntry{entryInvalid, entryNew}
	if !entrySetEqual(result, expected) {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestCommonReconcile_EmptyInputs(t *testing.T) {
	result := commonReconcileWantedEntries(nil, nil, nil)
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
}

func TestMarshalMirrorCatalog(t *testing.T) {
	older := testEntry("nginx", "1.18.0", "", "linux", "x86_64")
	newer := older
	newer.Checksum = "sha256:" + sha256Hex([]byte("rebuilt"))
	other := testEntry("nginx", "1.17.1", "", "linux", "x86_64")

	data, err := marshalMirrorCatalog([]StoredArtifact{
		{CatalogEntry: older},
		{CatalogEntry: other},
		{CatalogEntry: newer},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	catalog, err := parseCatalog(data, "test")
	if err != nil {
		t.Fatalf("mirror index is not a valid index: %v", err)
	}
	if len(catalog.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(catalog.Entries))
	}
	if catalog.Entries[0].Filename != other.Filename {
		t.Errorf("expected entries sorted by filename, got %s first", catalog.Entries[0].Filename)
	}
	if catalog.Entries[1].Checksum != newer.Checksum {
		t.Errorf("expected the later copy to win, got %s", catalog.Entries[1].Checksum)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["contents"]; !ok {
		t.Errorf("expected contents key in %s", data)
	}
}
