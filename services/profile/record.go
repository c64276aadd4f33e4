package profile

import (
	"alertbadge-go/types"
	"alertbadge-go/x/strx"
)

// Record layout: three NUL-padded text fields then one flag byte.
const (
	fieldSize  = types.FieldWidth + 1
	RecordSize = 3*fieldSize + 1

	offSSID = 0
	offPass = fieldSize
	offName = 2 * fieldSize
	offFlag = 3 * fieldSize

	flagConfigured = 1
)

// Encode packs p into a fresh record. Fields are truncated to FieldWidth so
// the last byte of each slot is always NUL.
func Encode(p types.DeviceProfile) []byte {
	p = p.Clamp()
	rec := make([]byte, RecordSize)
	copy(rec[offSSID:offSSID+types.FieldWidth], p.SSID)
	copy(rec[offPass:offPass+types.FieldWidth], p.Passphrase)
	copy(rec[offName:offName+types.FieldWidth], p.DeviceName)
	if p.Configured {
		rec[offFlag] = flagConfigured
	}
	return rec
}

// Decode unpacks a record. A short record or any flag value other than 1
// (erased flash reads 0xFF) yields the zero profile.
func Decode(rec []byte) types.DeviceProfile {
	if len(rec) < RecordSize || rec[offFlag] != flagConfigured {
		return types.DeviceProfile{}
	}
	return types.DeviceProfile{
		SSID:       field(rec, offSSID),
		Passphrase: field(rec, offPass),
		DeviceName: field(rec, offName),
		Configured: true,
	}
}

func field(rec []byte, off int) string {
	return strx.CString(rec[off : off+types.FieldWidth])
}
