package protocol

const (
	crcSeed       = 0xFFFF
	crcPolynomial = 0xA001 // reflected 0x8005
)

// CRC16 computes the frame checksum: a bit-serial CRC-16/ARC variant with a
// 0xFFFF seed. The peripheral silently drops frames with any other variant.
func CRC16(data []byte) uint16 {
	crc := uint16(crcSeed)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
