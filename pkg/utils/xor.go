package utils

// XORInPlace XORs data with mask, repeating mask as needed. XOR is its own
// inverse, so applying the same mask twice restores data.
func XORInPlace(data []byte, mask []byte) {
	if len(mask) == 0 {
		return
	}
	for i := range data {
		data[i] ^= mask[i%len(mask)]
	}
}
