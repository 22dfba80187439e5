// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     tray
// Description: Generated text icon for the tray
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// createTextIconBytes creates a PNG icon with "mSW" text in the state color
func createTextIconBytes(state IconState) []byte {
	// macOS menu bar: use 44x22 for wider text (retina-ready height)
	width := 44
	height := 22
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var c color.RGBA
	switch state {
	case IconStateIdle:
		c = color.RGBA{255, 255, 255, 255} // White
	case IconStateSpeaking:
		c = color.RGBA{0, 122, 255, 255} // Blue
	case IconStateError:
		c = color.RGBA{255, 149, 0, 255} // Orange
	default:
		c = color.RGBA{128, 128, 128, 255}
	}

	drawText(img, "mSW", 2, 4, c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return minimalPNG()
	}
	return buf.Bytes()
}

// Bitmap font data for characters (5x7 pixels each)
// Each character is defined as 7 rows of 5 bits
var bitmapFont = map[rune][]byte{
	'm': {
		0b00000,
		0b00000,
		0b11011,
		0b10101,
		0b10101,
		0b10101,
		0b10101,
	},
	'S': {
		0b01111,
		0b10000,
		0b10000,
		0b01110,
		0b00001,
		0b00001,
		0b11110,
	},
	'W': {
		0b10001,
		0b10001,
		0b10001,
		0b10101,
		0b10101,
		0b11011,
		0b10001,
	},
}

// drawText draws text on the image using the bitmap font
func drawText(img *image.RGBA, text string, startX, startY int, c color.RGBA) {
	x := startX
	charWidth := 6 // 5 pixels + 1 spacing
	charHeight := 7

	// Scale factor for better visibility (2x)
	scale := 2

	for _, ch := range text {
		if pattern, ok := bitmapFont[ch]; ok {
			for row := 0; row < charHeight; row++ {
				for col := 0; col < 5; col++ {
					if pattern[row]&(1<<(4-col)) != 0 {
						for sy := 0; sy < scale; sy++ {
							for sx := 0; sx < scale; sx++ {
								px := x + col*scale + sx
								py := startY + row*scale + sy
								if px >= 0 && px < img.Bounds().Max.X && py >= 0 && py < img.Bounds().Max.Y {
									img.SetRGBA(px, py, c)
								}
							}
						}
					}
				}
			}
		}
		x += charWidth * scale
	}
}

// minimalPNG returns a minimal valid 1x1 PNG as fallback
func minimalPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
