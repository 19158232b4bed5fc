package main

import (
	"encoding/json"
	"fmt"
	"sort"
)

// commonReconcileWantedEntries returns the entries that have to be (re)fetched: everything wanted
// or found invalid, minus what is already stored intact with the wanted checksum.
func commonReconcileWantedEntries(
	validArtifacts []StoredArtifact,
	invalidArtifacts []StoredArtifact,
	wantedEntries []CatalogEntry,
) (reconciled []CatalogEntry) {
	validChecksums := make(map[string]string)
	for _, x := range validArtifacts {
		validChecksums[x.Filename] = x.Checksum
	}

	seen := make(map[string]struct{})
	add := func(e CatalogEntry) {
		if _, ok := seen[e.Filename]; ok {
			return
		}
		seen[e.Filename] = struct{}{}
		if checksum, ok := validChecksums[e.Filename]; ok && checksum == e.Checksum {
			return
		}
		reconciled = append(reconciled, e)
	}

	for _, x := range wantedEntries {
		add(x)
	}
	for _, x := range invalidArtifacts {
		add(x.CatalogEntry)
	}
	return reconciled
}

// mergeStoredArtifacts drops superseded copies of the same file, the later one wins.
func mergeStoredArtifacts(artifacts []StoredArtifact) []StoredArtifact {
	byFilename := make(map[string]StoredArtifact)
	for _, a := range artifacts {
		byFilename[a.Filename] = a
	}
	retval := make([]StoredArtifact, 0, len(byFilename))
	for _, a := range byFilename {
		retval = append(retval, a)
	}
	sort.Slice(retval, func(i, j int) bool {
		return retval[i].Filename < retval[j].Filename
	})
	return retval
}

// marshalMirrorCatalog renders stored artifacts as an index document that binspiegel itself can
// consume as a repository.
func marshalMirrorCatalog(artifacts []StoredArtifact) ([]byte, error) {
	catalog := Catalog{
		FormatVersion: FORMAT_VERSION,
		Entries:       make([]CatalogEntry, 0, len(artifacts)),
	}
	for _, a := range mergeStoredArtifacts(artifacts) {
		catalog.Entries = append(catalog.Entries, a.CatalogEntry)
	}
	catalogJson, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshalling mirror index JSON: %w", err)
	}
	return catalogJson, nil
}
