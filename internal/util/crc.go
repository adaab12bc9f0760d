package util

// CRC8 computes the CRC-8 checksum used by Sensirion sensors
// (polynomial 0x31, initialization 0xFF, no final XOR).
func CRC8(data []byte) byte {
	const polynomial = 0x31
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
