package page

import "github.com/elidrissi/dbcore/types"

// RID (record id) names one tuple slot: the page it lives on plus its slot
// number within that page's slot directory.
type RID struct {
	pageId types.PageID
	slot   uint32
}

func NewRID(pageId types.PageID, slot uint32) RID {
	return RID{pageId: pageId, slot: slot}
}

func (r RID) GetPageId() types.PageID { return r.pageId }
func (r RID) GetSlot() uint32         { return r.slot }

func (r *RID) Set(pageId types.PageID, slot uint32) {
	r.pageId = pageId
	r.slot = slot
}

const SizeOfRID = 8

func (r RID) Serialize() []byte {
	buf := make([]byte, SizeOfRID)
	copy(buf[0:4], r.pageId.Serialize())
	pid := int32(r.slot)
	copy(buf[4:8], types.PageID(pid).Serialize())
	return buf
}

func NewRIDFromBytes(b []byte) RID {
	pageId := types.NewPageIDFromBytes(b[0:4])
	slot := uint32(int32(types.NewPageIDFromBytes(b[4:8])))
	return RID{pageId: pageId, slot: slot}
}
