package manifest

import "sort"

// Info is the runtime view of a mod exposed to scripts (spec.md §3
// ModInfo). Invariant: Loaded implies Exists; Bootstrapped implies Loaded.
type Info struct {
	ID                string
	Version           string
	Name              string
	Description       string
	ModType           ModType
	Priority          int32
	Bootstrapped      bool
	Loaded            bool
	Exists            bool
	DownloadURL       string
	ArchiveSHA512     string
	ArchiveBytes      uint64
	UncompressedBytes uint64
}

// SortForSystemAPI orders mods the way system.get_mods() does: loaded
// mods first by ascending priority, then not-loaded mods by ascending
// priority (spec.md §4.8).
func SortForSystemAPI(infos []Info) []Info {
	out := make([]Info, len(infos))
	copy(out, infos)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Loaded != b.Loaded {
			return a.Loaded // loaded sorts before not-loaded
		}
		return a.Priority < b.Priority
	})
	return out
}
