package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	OGWidth  = 1200
	OGHeight = 630

	DefaultOGTitle = "My default title"

	ogDotSpacing   = 100
	ogAvatarRadius = 150
	ogTextLeft     = 440
	ogTextRight    = 1140
	ogTitleLineGap = 76
	ogMaxLines     = 5
)

var (
	ogBackground = color.White
	ogDot        = color.RGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff}
	ogSiteColor  = color.RGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	ogTitleColor = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
)

// OGImageService renders social preview images
type OGImageService struct {
	mu        sync.Mutex
	siteName  string
	avatar    image.Image
	siteFace  font.Face
	titleFace font.Face
}

// NewOGImageService loads the fonts and, when avatarPath is set, the avatar.
func NewOGImageService(siteName, avatarPath string) (*OGImageService, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	siteFace, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("site name face: %w", err)
	}
	titleFace, err := opentype.NewFace(bold, &opentype.FaceOptions{Size: 64, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("title face: %w", err)
	}

	s := &OGImageService{siteName: siteName, siteFace: siteFace, titleFace: titleFace}
	if avatarPath != "" {
		f, err := os.Open(avatarPath)
		if err != nil {
			return nil, fmt.Errorf("open avatar: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode avatar: %w", err)
		}
		s.avatar = img
	}
	return s, nil
}

// Render draws the preview image for title and returns it PNG encoded.
func (s *OGImageService) Render(title string) ([]byte, error) {
	// font faces keep per-glyph scratch state
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultOGTitle
	}

	img := image.NewRGBA(image.Rect(0, 0, OGWidth, OGHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(ogBackground), image.Point{}, draw.Src)
	drawDots(img)

	if s.avatar != nil {
		s.drawAvatar(img)
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(ogSiteColor), Face: s.siteFace}
	d.Dot = fixed.P(ogTextLeft, 200)
	d.DrawString(s.siteName)

	d = &font.Drawer{Dst: img, Src: image.NewUniform(ogTitleColor), Face: s.titleFace}
	lines := wrapText(d, title, ogTextRight-ogTextLeft, ogMaxLines)
	y := 290
	for _, line := range lines {
		d.Dot = fixed.P(ogTextLeft, y)
		d.DrawString(line)
		y += ogTitleLineGap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawDots(img *image.RGBA) {
	for y := ogDotSpacing / 2; y < OGHeight; y += ogDotSpacing {
		for x := ogDotSpacing / 2; x < OGWidth; x += ogDotSpacing {
			r := image.Rect(x-2, y-2, x+2, y+2)
			draw.Draw(img, r, image.NewUniform(ogDot), image.Point{}, draw.Src)
		}
	}
}

func (s *OGImageService) drawAvatar(img *image.RGBA) {
	size := 2 * ogAvatarRadius
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), s.avatar, s.avatar.Bounds(), draw.Src, nil)

	cx, cy := OGWidth/6, OGHeight/2
	dst := image.Rect(cx-ogAvatarRadius, cy-ogAvatarRadius, cx+ogAvatarRadius, cy+ogAvatarRadius)
	draw.DrawMask(img, dst, scaled, image.Point{}, &circleMask{r: ogAvatarRadius}, image.Point{}, draw.Over)
}

// circleMask is an alpha mask of a disc of radius r centred in a 2r square.
type circleMask struct {
	r int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle { return image.Rect(0, 0, 2*c.r, 2*c.r) }

func (c *circleMask) At(x, y int) color.Color {
	dx, dy := x-c.r, y-c.r
	if dx*dx+dy*dy <= c.r*c.r {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

// wrapText breaks text into lines no wider than width, truncating with an
// ellipsis after maxLines.
func wrapText(d *font.Drawer, text string, width, maxLines int) []string {
	limit := fixed.I(width)
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if d.MeasureString(candidate) <= limit {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
		for d.MeasureString(current) > limit && utf8.RuneCountInString(current) > 1 {
			cut := fitPrefix(d, current, limit)
			lines = append(lines, current[:cut])
			current = current[cut:]
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := lines[maxLines-1]
		for last != "" && d.MeasureString(last+"…") > limit {
			_, size := utf8.DecodeLastRuneInString(last)
			last = last[:len(last)-size]
		}
		lines[maxLines-1] = last + "…"
	}
	return lines
}

// fitPrefix returns the byte length of the longest prefix of s that fits
// in limit, at least one rune.
func fitPrefix(d *font.Drawer, s string, limit fixed.Int26_6) int {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if end > 0 && d.MeasureString(s[:next]) > limit {
			break
		}
		end = next
	}
	return end
}
