package frame

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"starpick/pkg/geometry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// FileImage is an Image backed by a decoded image file. Sample values are the
// 8-bit luminance of each pixel; header keywords come from TIFF metadata tags
// plus whatever the caller sets explicitly.
type FileImage struct {
	name     string
	width    int
	height   int
	samples  []float64
	keywords map[string]string
	wcs      WCS
}

// Load decodes an image file (PNG, JPEG, or TIFF) into a FileImage. TIFF
// files contribute header keywords from their metadata tags; if the keywords
// describe an astrometric solution, a sky transform is attached.
func Load(path string) (*FileImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	fi := FromImage(filepath.Base(path), img)

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if kw, err := extractTIFFKeywords(path); err == nil {
			for k, v := range kw {
				fi.keywords[k] = v
			}
		}
	}

	if w := WCSFromKeywords(fi); w != nil {
		fi.wcs = w
	}

	return fi, nil
}

// FromImage converts a decoded image into a FileImage, extracting the
// luminance plane as the sample values.
func FromImage(name string, img image.Image) *FileImage {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	samples := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			// Grayscale output has R == G == B.
			samples[y*w+x] = float64(row[x*4])
		}
	}

	return &FileImage{
		name:     name,
		width:    w,
		height:   h,
		samples:  samples,
		keywords: make(map[string]string),
	}
}

// NewDataImage creates an in-memory image from row-major samples. The number
// of samples must be width*height.
func NewDataImage(name string, width, height int, samples []float64) *FileImage {
	if len(samples) != width*height {
		panic(fmt.Sprintf("frame: %d samples for %dx%d image", len(samples), width, height))
	}
	return &FileImage{
		name:     name,
		width:    width,
		height:   height,
		samples:  samples,
		keywords: make(map[string]string),
	}
}

// Name returns the image name.
func (f *FileImage) Name() string { return f.name }

// Extent returns the valid pixel extent.
func (f *FileImage) Extent() geometry.RectInt {
	return geometry.RectInt{X1: 0, Y1: 0, X2: f.width, Y2: f.height}
}

// ValueAt returns the sample at (x, y).
func (f *FileImage) ValueAt(x, y int) float64 {
	return f.samples[y*f.width+x]
}

// Keyword looks up a header keyword.
func (f *FileImage) Keyword(key string) (string, bool) {
	v, ok := f.keywords[key]
	return v, ok
}

// SetKeyword sets a header keyword, replacing any prior value.
func (f *FileImage) SetKeyword(key, value string) {
	f.keywords[key] = value
}

// SetWCS attaches a sky transform.
func (f *FileImage) SetWCS(w WCS) {
	f.wcs = w
	if w != nil {
		// keep keywords in sync when a linear solution is attached
		if lw, ok := w.(*LinearWCS); ok {
			f.keywords[keyRefX] = fmt.Sprintf("%g", lw.RefX)
			f.keywords[keyRefY] = fmt.Sprintf("%g", lw.RefY)
			f.keywords[keyRefRA] = fmt.Sprintf("%g", lw.RefRA)
			f.keywords[keyRefDec] = fmt.Sprintf("%g", lw.RefDec)
			f.keywords[keyScaleX] = fmt.Sprintf("%g", lw.ScaleX)
			f.keywords[keyScaleY] = fmt.Sprintf("%g", lw.ScaleY)
		}
	}
}

// PixelToSky maps a pixel coordinate to sky coordinates in degrees.
func (f *FileImage) PixelToSky(x, y float64) (float64, float64, error) {
	if f.wcs == nil {
		return 0, 0, ErrNoWCS
	}
	return f.wcs.PixelToSky(x, y)
}

// SkyToPixel maps sky coordinates in degrees to a pixel coordinate.
func (f *FileImage) SkyToPixel(ra, dec float64) (float64, float64, error) {
	if f.wcs == nil {
		return 0, 0, ErrNoWCS
	}
	return f.wcs.SkyToPixel(ra, dec)
}

// TIFF metadata tags that map onto header keywords.
const (
	tagImageDescription = 270
	tagDateTime         = 306
	tagArtist           = 315
)

// extractTIFFKeywords reads string metadata tags from a TIFF file's first
// IFD and maps them onto header keywords.
func extractTIFFKeywords(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return nil, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return nil, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return nil, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return nil, err
	}

	keywords := make(map[string]string)
	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return nil, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		count := byteOrder.Uint32(entry[4:8])
		valueOffset := byteOrder.Uint32(entry[8:12])

		if fieldType != 2 { // ASCII
			continue
		}

		var key string
		switch tag {
		case tagDateTime:
			key = "DATE-OBS"
		case tagImageDescription:
			key = "OBJECT"
		case tagArtist:
			key = "OBSERVER"
		default:
			continue
		}

		value, err := readTIFFASCII(file, count, valueOffset, entry[8:12])
		if err != nil {
			continue
		}
		keywords[key] = value
	}

	return keywords, nil
}

// readTIFFASCII reads an ASCII tag value. Values of four bytes or fewer are
// stored inline in the entry; longer values live at the offset.
func readTIFFASCII(file *os.File, count, offset uint32, inline []byte) (string, error) {
	var raw []byte
	if count <= 4 {
		raw = inline[:count]
	} else {
		currentPos, _ := file.Seek(0, 1)
		defer file.Seek(currentPos, 0)

		if _, err := file.Seek(int64(offset), 0); err != nil {
			return "", err
		}
		raw = make([]byte, count)
		if _, err := file.Read(raw); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
