package inbox

import (
	"context"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

type markerKey struct {
	saleID    int64
	eventType pkgtypes.EventType
}

// MemoryMarks is an inbox for memory stores. Callers provide the locking.
type MemoryMarks struct {
	markers map[markerKey]Marker
}

func NewMemoryMarks() *MemoryMarks {
	return &MemoryMarks{markers: map[markerKey]Marker{}}
}

func (m *MemoryMarks) GetMarker(_ context.Context, saleID int64, eventType pkgtypes.EventType) (*Marker, bool, error) {
	marker, ok := m.markers[markerKey{saleID, eventType}]
	if !ok {
		return nil, false, nil
	}
	return &marker, true, nil
}

func (m *MemoryMarks) InsertMarker(_ context.Context, marker *Marker) error {
	k := markerKey{marker.SaleID, marker.EventType}
	if _, ok := m.markers[k]; ok {
		return pkgerrors.NewDuplicateKeyError(nil)
	}
	m.markers[k] = *marker
	return nil
}

func (m *MemoryMarks) Len() int {
	return len(m.markers)
}

func (m *MemoryMarks) Clone() *MemoryMarks {
	c := NewMemoryMarks()
	for k, v := range m.markers {
		c.markers[k] = v
	}
	return c
}
