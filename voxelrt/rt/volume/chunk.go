package volume

const (
	ChunkAxisBits = 10
	chunkAxisMask = 1<<ChunkAxisBits - 1 // 0x3FF
)

// EncodeChunk packs a chunk coordinate as x<<20 | y<<10 | z. Each axis is
// masked to 10 bits, so out-of-range values wrap.
func EncodeChunk(x, y, z int) uint32 {
	pack := func(v int) uint32 {
		return uint32(v) & chunkAxisMask
	}
	return pack(x)<<(2*ChunkAxisBits) | pack(y)<<ChunkAxisBits | pack(z)
}

func DecodeChunk(v uint32) (x, y, z uint32) {
	return (v >> (2 * ChunkAxisBits)) & chunkAxisMask, (v >> ChunkAxisBits) & chunkAxisMask, v & chunkAxisMask
}
