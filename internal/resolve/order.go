package resolve

import (
	"sort"

	"github.com/google/uuid"
)

// OrderEpsilon spaces a sub-playlist's records inside the integer order slot
// of the item that pulled them in. At 0.001 a sub-playlist can contribute up
// to ~1000 records before colliding with the next top-level slot.
const OrderEpsilon = 0.001

// Rehome places a sub-playlist's records under the parent item's order slot:
// record i gets parentOrder + i*ε, after a stable sort by the records' own
// effective order so the sub-playlist's internal ordering is preserved.
// Provenance is tagged with the immediate containing sub-playlist; records
// already tagged by a deeper level keep their deeper provenance.
func Rehome(recs []Record, parentOrder int, subID uuid.UUID, subName string) {
	SortRecords(recs)
	for i := range recs {
		recs[i].Order = float64(parentOrder) + float64(i)*OrderEpsilon
		if recs[i].FromSubPlaylist == nil {
			id := subID
			recs[i].FromSubPlaylist = &id
			recs[i].SubPlaylistName = subName
		}
	}
}

// SortRecords orders records ascending by effective order. The sort is
// stable: equal orders keep their input sequence.
func SortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Order < recs[j].Order
	})
}
