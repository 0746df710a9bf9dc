package loaders

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type pngChunk struct {
	typ  string
	data []byte
}

func appendChunk(buf *bytes.Buffer, c pngChunk) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(c.data)))
	buf.Write(n[:])
	buf.WriteString(c.typ)
	buf.Write(c.data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(c.typ))
	crc.Write(c.data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	buf.Write(n[:])
}

func ihdr(width, height uint32, depth, colorType uint8) pngChunk {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], width)
	binary.BigEndian.PutUint32(data[4:8], height)
	data[8] = depth
	data[9] = colorType
	return pngChunk{typ: "IHDR", data: data}
}

// rawPNG assembles a PNG by hand from unfiltered scanlines, for layouts the
// standard encoder never writes (gray+alpha, gray with tRNS, 1-bit gray).
func rawPNG(t *testing.T, width, height uint32, depth, colorType uint8, rows [][]byte, extra ...pngChunk) []byte {
	t.Helper()

	var raw bytes.Buffer
	for _, row := range rows {
		raw.WriteByte(0) // filter: none
		raw.Write(row)
	}
	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var buf bytes.Buffer
	buf.WriteString(pngSignature)
	appendChunk(&buf, ihdr(width, height, depth, colorType))
	for _, c := range extra {
		appendChunk(&buf, c)
	}
	appendChunk(&buf, pngChunk{typ: "IDAT", data: idat.Bytes()})
	appendChunk(&buf, pngChunk{typ: "IEND"})
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
