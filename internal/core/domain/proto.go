package domain

import "strconv"

// ProtoID is the numeric identifier of a distinct item template. Every
// minted asset points back to exactly one proto.
type ProtoID int64

func (p ProtoID) String() string {
	return strconv.FormatInt(int64(p), 10)
}
